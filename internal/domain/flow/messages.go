package flow

import (
	"fmt"
	"strings"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
)

const (
	fallbackReply         = "I'm not sure how to help with that. Could you rephrase?"
	needMoreInfoReply     = "I need a bit more information. Please provide:\n- Brand (e.g., Samsung, LG)\n- Model number\n- Serial number (if available)\n\nOr upload a photo of the nameplate!"
	identifyFirstReply    = "I need to identify your appliance first. Please provide brand, model, and serial number."
	uploadedNameplateText = "I uploaded a nameplate image"
	safetyNotice          = "This issue may be a safety hazard. Stop using the appliance and consider booking a technician."
	noTechniciansNotice   = "No technicians available for this appliance type."
	noComboSlotsNotice    = "Insufficient time slots available. Please contact support."
	beforeArrivalNotice   = "Important Notice: This time slot is scheduled before your part arrives on %s. We strongly recommend selecting a time slot after the part arrival date to ensure the technician has the necessary part available for installation. Booking before part arrival may result in a rescheduled visit if the part has not been delivered."
)

// Validation messages returned as invalid_input.
const (
	msgSelectCategory   = "Please select an appliance category."
	msgManualRequired   = "Please ensure Brand is selected and enter Model Number (required fields)"
	msgModelRequired    = "Model Number is required. Please enter a Model Number."
	msgSelectIssue      = "Please select or describe an issue first."
	msgDescribeIssue    = "Please describe your issue."
	msgSelectSlot       = "Please select a time slot."
	msgSelectPart       = "Please select at least one part to order."
	msgConfirmPayment   = "Please confirm the payment details checkbox to proceed."
	msgAuthorizeCharge  = "Please authorize the combined payment to proceed."
	msgEmptyMessage     = "Please enter a message."
	msgNoPhotoToConfirm = "There is no nameplate reading to confirm."
	msgSelectBrand      = "Please select your appliance brand and sub category."
)

var (
	confirmKeywords     = []string{"yes", "correct", "right", "confirm"}
	diyKeywords         = []string{"1", "troubleshoot", "self", "guide", "fix", "repair myself"}
	bookChoiceKeywords  = []string{"2", "book", "technician", "repair", "schedule", "professional"}
	bookKeywords        = []string{"book", "technician", "repair", "schedule"}
	stopTroubleshooting = []string{"book", "technician", "repair", "schedule", "stop"}
)

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

func ageLine(a appliance.Appliance) string {
	if a.Age == nil || *a.Age <= 0 {
		return ""
	}
	return fmt.Sprintf("**Age:** ~%d years", *a.Age)
}

func manualEntryMessage(a appliance.Appliance) string {
	return fmt.Sprintf("I entered: Brand: %s, Model: %s, Serial: %s", a.Brand, a.Model, orNA(a.Serial))
}

func nameplateFoundMessage(a appliance.Appliance) string {
	return "I found the following information from your nameplate:\n\n" + a.Summary() + "\n" + ageLine(a)
}

func correctionMessage(a appliance.Appliance) string {
	return fmt.Sprintf("I corrected: Model: %s, Serial: %s", a.Model, orNA(a.Serial))
}

func correctedSummaryMessage(a appliance.Appliance) string {
	return "I've updated the information with your corrections:\n\n" + a.Summary() + "\n" + ageLine(a)
}

func applianceCheckMessage(a appliance.Appliance) string {
	return "I have:\n\n" + a.Summary() + "\n\nDoes this look correct? Please confirm."
}

func issueListingMessage(applianceType string, hasIssues bool) string {
	if applianceType == appliance.Unknown {
		if hasIssues {
			return "Great! I've noted your appliance details.\n\nHere are some common issues, or describe the problem you're experiencing directly:"
		}
		return "Great! I've noted your appliance details.\n\nI couldn't determine the appliance type, so please describe the problem you're experiencing directly."
	}
	if hasIssues {
		return fmt.Sprintf("Great! I've identified your %s.\n\nHere are some common issues with %ss:", applianceType, applianceType)
	}
	return fmt.Sprintf("Great! I've identified your %s.\n\nWhat problem are you experiencing with your %s?", applianceType, applianceType)
}

func troubleshootOrBookMessage(issue string) string {
	return fmt.Sprintf("I understand you're experiencing: **%s**\n\nHow would you like to proceed?", issue)
}

func partNames(parts []appliance.Part) string {
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

// orderStartMessages returns the user and assistant turns that open an order.
func orderStartMessages(part appliance.Part, components []appliance.Part, fromCatalog, combined bool) (string, string) {
	if fromCatalog {
		list := partNames(components)
		if combined {
			return fmt.Sprintf("I want to order: %s and book a technician", list),
				fmt.Sprintf("Perfect! I'll help you order **%s** and book a technician. Let's start with your order details.", list)
		}
		return fmt.Sprintf("I want to order: %s", list),
			fmt.Sprintf("Excellent! I'll help you order **%s**. Let's proceed with your order details.", list)
	}
	if combined {
		return fmt.Sprintf("I want to order the %s and book a technician", part.Name),
			fmt.Sprintf("Perfect! I'll help you order **%s** (Part #: %s, Cost: $%.2f) and book a technician. Let's start with your order details.", part.Name, part.PartNumber, part.Price)
	}
	return fmt.Sprintf("I want to order the %s", part.Name),
		fmt.Sprintf("Excellent! I'll help you order **%s** (Part #: %s). Let's proceed with your order details.", part.Name, part.PartNumber)
}
