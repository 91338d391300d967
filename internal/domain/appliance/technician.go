package appliance

// AllAppliances is the specialization wildcard.
const AllAppliances = "All Appliances"

// WeeklySlots lists the time ranges a technician works on a given weekday.
type WeeklySlots struct {
	Day   string   `json:"day"`
	Slots []string `json:"slots"`
}

// Technician is a bookable service professional.
type Technician struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Specialization  []string      `json:"specialization"`
	Rating          float64       `json:"rating"`
	ExperienceYears int           `json:"experience_years"`
	BaseFee         float64       `json:"base_fee"`
	Availability    []string      `json:"availability"`
	TimeSlots       []WeeklySlots `json:"time_slots"`
	Location        string        `json:"location"`
	ResponseTime    string        `json:"response_time"`
}

// IsAvailableFor reports whether the technician services applianceType.
func (t Technician) IsAvailableFor(applianceType string) bool {
	for _, s := range t.Specialization {
		if s == AllAppliances || s == applianceType {
			return true
		}
	}
	return false
}

// SlotsOn returns the time ranges offered on the given weekday name.
func (t Technician) SlotsOn(day string) []string {
	for _, ts := range t.TimeSlots {
		if ts.Day == day {
			return ts.Slots
		}
	}
	return nil
}
