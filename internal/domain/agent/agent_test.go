package agent_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/appliance-assistant/internal/domain/agent"
	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	"github.com/yanqian/appliance-assistant/internal/infra/llm/chatgpt"
	"github.com/yanqian/appliance-assistant/internal/infra/llm/schema"
)

type stubReply struct {
	content string
	err     error
}

type stubChatClient struct {
	replies  []stubReply
	requests []chatgpt.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if len(s.replies) == 0 {
		return chatgpt.ChatCompletionResponse{}, errors.New("no reply queued")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	if reply.err != nil {
		return chatgpt.ChatCompletionResponse{}, reply.err
	}
	return chatgpt.ChatCompletionResponse{
		Choices: []chatgpt.Choice{{Message: chatgpt.Message{Role: "assistant", Content: reply.content}}},
	}, nil
}

func replies(contents ...string) *stubChatClient {
	client := &stubChatClient{}
	for _, c := range contents {
		client.replies = append(client.replies, stubReply{content: c})
	}
	return client
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newValidator() *schema.Validator {
	return schema.NewValidator(8, time.Minute)
}

var lg = appliance.Appliance{Brand: "LG", Model: "WM3900", ApplianceType: "Washing Machine"}

func TestTypeDetectorStructured(t *testing.T) {
	t.Parallel()
	client := replies(`{"appliance_type":"Refrigerator"}`)
	detector := agent.NewTypeDetector(client, agent.Settings{Model: "gpt-4o-mini", Temperature: 0.3}, newValidator(), newTestLogger())

	got := detector.Detect(context.Background(), appliance.Appliance{Brand: "Samsung", Model: "RF28"})
	require.Equal(t, "Refrigerator", got)
	require.Len(t, client.requests, 1)
	req := client.requests[0]
	require.Equal(t, "gpt-4o-mini", req.Model)
	require.NotNil(t, req.ResponseFormat)
	require.Equal(t, "appliance_type", req.ResponseFormat.JSONSchema.Name)
	require.Contains(t, req.Messages[0].Content, "- Brand: Samsung")
	require.Contains(t, req.Messages[0].Content, "- Serial: Unknown")
}

func TestTypeDetectorTextFallback(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{name: "known type inside sentence", content: `It's a "washing machine".`, want: "Washing Machine"},
		{name: "unrecognized type kept", content: "'Wine Cooler'", want: "Wine Cooler"},
		{name: "empty answer", content: `""`, want: appliance.Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			detector := agent.NewTypeDetector(replies(tc.content), agent.Settings{}, newValidator(), newTestLogger())
			require.Equal(t, tc.want, detector.Detect(context.Background(), lg))
		})
	}
}

func TestTypeDetectorFailureReturnsUnknown(t *testing.T) {
	t.Parallel()
	client := &stubChatClient{replies: []stubReply{{err: errors.New("boom")}}}
	detector := agent.NewTypeDetector(client, agent.Settings{}, nil, newTestLogger())
	require.Equal(t, appliance.Unknown, detector.Detect(context.Background(), lg))
}

func TestParseIssueList(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "numbered dot", content: "1. Ice maker not working", want: []string{"Ice maker not working"}},
		{name: "numbered paren", content: "2) Door will not close", want: []string{"Door will not close"}},
		{name: "short lines dropped", content: "1. Noisy\n2. Leaks\n3. Not cooling enough", want: []string{"Not cooling enough"}},
		{name: "blank", content: "\n\n", want: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, agent.ParseIssueList(tc.content))
		})
	}

	var many []string
	for i := 0; i < 14; i++ {
		many = append(many, "Issue number "+strings.Repeat("x", i+1))
	}
	require.Len(t, agent.ParseIssueList(strings.Join(many, "\n")), appliance.MaxListedIssues)
}

func TestIssueListerStructured(t *testing.T) {
	t.Parallel()
	client := replies(`{"issues":["1. Drum not spinning","Noisy","Won't drain water"]}`)
	lister := agent.NewIssueLister(client, agent.Settings{}, newValidator(), newTestLogger())

	got := lister.List(context.Background(), lg)
	require.Equal(t, []string{"Drum not spinning", "Won't drain water"}, got)
	require.Contains(t, client.requests[0].Messages[0].Content, "Appliance Type: Washing Machine")
}

func TestTroubleshooterRetriesWithSimplePrompt(t *testing.T) {
	t.Parallel()
	client := &stubChatClient{replies: []stubReply{{err: errors.New("timeout")}, {content: "1. Step 1: Check the power."}}}
	ts := agent.NewTroubleshooter(client, agent.Settings{Model: "gpt-4o", Temperature: 0.7, MaxTokens: 2000}, newTestLogger())

	got := ts.Guide(context.Background(), lg, "Won't drain", nil, false)
	require.Equal(t, "1. Step 1: Check the power.", got)
	require.Len(t, client.requests, 2)
	require.Equal(t, "system", client.requests[0].Messages[0].Role)
	require.Contains(t, client.requests[0].Messages[1].Content, "No previous conversation.")
	require.Len(t, client.requests[1].Messages, 1)
	require.Equal(t, 2000, client.requests[1].MaxTokens)
}

func TestTroubleshooterApologizesWhenRetryFails(t *testing.T) {
	t.Parallel()
	client := &stubChatClient{replies: []stubReply{{err: errors.New("a")}, {err: errors.New("b")}}}
	ts := agent.NewTroubleshooter(client, agent.Settings{}, newTestLogger())
	require.Equal(t, agent.TroubleshootingApology, ts.Guide(context.Background(), lg, "Leak", nil, false))
}

func TestTroubleshooterUsesRecentHistory(t *testing.T) {
	t.Parallel()
	client := replies("ok")
	ts := agent.NewTroubleshooter(client, agent.Settings{}, newTestLogger())
	history := []agent.Message{
		{Role: "user", Content: "m1"}, {Role: "assistant", Content: "m2"}, {Role: "user", Content: "m3"},
		{Role: "assistant", Content: "m4"}, {Role: "user", Content: "m5"}, {Role: "assistant", Content: "m6"},
	}
	ts.Guide(context.Background(), lg, "Leak", history, false)
	prompt := client.requests[0].Messages[1].Content
	require.NotContains(t, prompt, "User: m1")
	require.Contains(t, prompt, "Assistant: m2\nUser: m3")
	require.Contains(t, prompt, "Assistant: m6")
}

func TestTroubleshooterStripsPartsForCatalogIssues(t *testing.T) {
	t.Parallel()
	client := replies("1. Replace the bulb.\n\n**Part Required**: LED Board\n**Part Number**: W123\n**Cost**: $40\n\n2. Test the switch.")
	ts := agent.NewTroubleshooter(client, agent.Settings{}, newTestLogger())

	got := ts.Guide(context.Background(), appliance.Appliance{Brand: "GE", Model: "X", ApplianceType: "Refrigerator"},
		appliance.IssueLightsNotWorking, nil, true)
	require.Equal(t, "1. Replace the bulb.\n\n2. Test the switch.", got)
	require.Contains(t, client.requests[0].Messages[1].Content, "DO NOT include any part information")
}

func TestSummarizer(t *testing.T) {
	t.Parallel()
	t.Run("no history", func(t *testing.T) {
		client := replies("Washer does not drain.")
		s := agent.NewSummarizer(client, agent.Settings{}, agent.EstimateCounter{}, 6000, newTestLogger())
		require.Equal(t, "Washer does not drain.", s.Summarize(context.Background(), lg, nil))
		require.Contains(t, client.requests[0].Messages[0].Content, "No conversation history.")
	})
	t.Run("trims oldest to budget", func(t *testing.T) {
		client := replies("summary")
		s := agent.NewSummarizer(client, agent.Settings{}, agent.EstimateCounter{}, 10, newTestLogger())
		history := []agent.Message{
			{Role: "user", Content: strings.Repeat("old ", 20)},
			{Role: "assistant", Content: "recent reply"},
		}
		s.Summarize(context.Background(), lg, history)
		prompt := client.requests[0].Messages[0].Content
		require.NotContains(t, prompt, "old old")
		require.Contains(t, prompt, "Assistant: recent reply")
	})
	t.Run("failure", func(t *testing.T) {
		client := &stubChatClient{replies: []stubReply{{err: errors.New("down")}}}
		s := agent.NewSummarizer(client, agent.Settings{}, nil, 0, newTestLogger())
		require.Equal(t, agent.SummaryUnavailable, s.Summarize(context.Background(), lg, nil))
	})
}

func TestParseNameplateText(t *testing.T) {
	t.Parallel()
	reading := agent.ParseNameplateText("RAW_TEXT: LG ELECTRONICS MODEL WM3900HWA\nJSON: {\"brand\":\"LG\",\"model\":\"WM3900HWA\",\"serial\":null,\"age\":\"3\"}")
	require.Equal(t, "LG ELECTRONICS MODEL WM3900HWA", reading.RawText)
	require.Equal(t, "LG", reading.Info.Brand)
	require.Equal(t, "WM3900HWA", reading.Info.Model)
	require.Empty(t, reading.Info.Serial)
	require.NotNil(t, reading.Info.Age)
	require.Equal(t, 3, *reading.Info.Age)

	loose := agent.ParseNameplateText("I can see {\"brand\": \"Bosch\", \"model\": \"SHX878\"} on the label")
	require.Equal(t, "Bosch", loose.Info.Brand)
	require.Contains(t, loose.RawText, "I can see")
}

func TestNameplateReaderCachesByHash(t *testing.T) {
	t.Parallel()
	client := replies(`{"raw_text":"SAMSUNG RF28","brand":"Samsung","model":"RF28","serial":"S1","age":null}`)
	reader := agent.NewNameplateReader(client, agent.Settings{MaxTokens: 500}, newValidator(), 4, time.Minute, newTestLogger())

	first, err := reader.Read(context.Background(), "abc", "image/png", []byte{1, 2, 3})
	require.NoError(t, err)
	second, err := reader.Read(context.Background(), "abc", "image/png", []byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, "Samsung", first.Info.Brand)
	require.Len(t, client.requests, 1)
	parts := client.requests[0].Messages[0].Parts
	require.Len(t, parts, 2)
	require.True(t, strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,"))
}

func TestNameplateReaderSurfacesErrors(t *testing.T) {
	t.Parallel()
	client := &stubChatClient{replies: []stubReply{{err: errors.New("vision down")}}}
	reader := agent.NewNameplateReader(client, agent.Settings{}, nil, 4, time.Minute, newTestLogger())
	_, err := reader.Read(context.Background(), "h", "", []byte{1})
	require.Error(t, err)
}

func TestExtractor(t *testing.T) {
	t.Parallel()
	client := replies("```json\n{\"brand\": \"Whirlpool\", \"model\": \"WRF555\", \"serial\": null, \"age\": 7}\n```")
	extractor := agent.NewExtractor(client, agent.Settings{}, nil, newTestLogger())

	info := extractor.Extract(context.Background(), "My Whirlpool WRF555 is about 7 years old")
	require.Equal(t, "Whirlpool", info.Brand)
	require.Equal(t, "WRF555", info.Model)
	require.Equal(t, 7, *info.Age)
	require.Equal(t, "system", client.requests[0].Messages[0].Role)

	bad := agent.NewExtractor(replies("not json"), agent.Settings{}, nil, newTestLogger())
	require.True(t, bad.Extract(context.Background(), "hello").IsEmpty())
}

func TestNameplateGuide(t *testing.T) {
	t.Parallel()
	client := replies("Look inside the fridge.")
	guide := agent.NewNameplateGuide(client, agent.Settings{}, newTestLogger())
	require.Equal(t, "Look inside the fridge.", guide.Locate(context.Background(), "Refrigerator", "Compact", "GE"))
	require.Contains(t, client.requests[0].Messages[1].Content, "for a GE Compact")

	failing := agent.NewNameplateGuide(&stubChatClient{}, agent.Settings{}, newTestLogger())
	require.Equal(t, agent.GuidanceUnavailable, failing.Locate(context.Background(), "Washer", "", "LG"))
}
