package telegram

import (
	"testing"

	"github.com/mymmrac/telego"

	"github.com/nextlevelbuilder/grindbot/internal/transport"
)

func TestToMessage(t *testing.T) {
	msg := &telego.Message{
		MessageID: 7,
		Chat:      telego.Chat{ID: -100222, Type: "supergroup", Title: "Word Grinders"},
		From:      &telego.User{ID: 99, Username: "gamebot"},
		Caption:   "چالش",
		Photo: []telego.PhotoSize{
			{FileID: "small"},
			{FileID: "large"},
		},
		ReplyMarkup: &telego.InlineKeyboardMarkup{
			InlineKeyboard: [][]telego.InlineKeyboardButton{
				{
					{Text: "open", CallbackData: "open:1"},
					{Text: "info", URL: "https://example.com"},
				},
			},
		},
	}

	got := toMessage(msg)

	if got.Ref != (transport.MessageRef{ChatID: -100222, MessageID: 7}) {
		t.Errorf("ref = %+v", got.Ref)
	}
	if got.Sender != "gamebot" {
		t.Errorf("sender = %q, want %q", got.Sender, "gamebot")
	}
	if got.TextContent() != "چالش" {
		t.Errorf("text content = %q, want caption fallback", got.TextContent())
	}
	if !got.HasPhoto {
		t.Error("HasPhoto = false for a photo message")
	}
	if got.MediaID != "large" {
		t.Errorf("media id = %q, want the largest photo %q", got.MediaID, "large")
	}
	if len(got.Buttons) != 1 || len(got.Buttons[0]) != 2 {
		t.Fatalf("buttons shape = %v", got.Buttons)
	}
	if got.Buttons[0][0].Data != "open:1" {
		t.Errorf("button data = %q, want %q", got.Buttons[0][0].Data, "open:1")
	}
	if got.Buttons[0][1].URL == "" {
		t.Error("url button lost its URL")
	}
}

func TestToMessageDocumentFallback(t *testing.T) {
	msg := &telego.Message{
		MessageID: 8,
		Chat:      telego.Chat{ID: 5, Type: "group"},
		From:      &telego.User{ID: 12345},
		Document:  &telego.Document{FileID: "doc-1"},
	}

	got := toMessage(msg)

	if got.HasPhoto {
		t.Error("HasPhoto = true for a document message")
	}
	if got.MediaID != "doc-1" {
		t.Errorf("media id = %q, want %q", got.MediaID, "doc-1")
	}
	if got.Sender != "12345" {
		t.Errorf("sender = %q, want the numeric fallback", got.Sender)
	}
}

func TestChatGroup(t *testing.T) {
	tests := []struct {
		name          string
		chat          telego.Chat
		wantOK        bool
		wantBroadcast bool
	}{
		{"supergroup", telego.Chat{ID: 1, Type: "supergroup", Title: "g"}, true, false},
		{"legacy group", telego.Chat{ID: 2, Type: "group"}, true, false},
		{"channel", telego.Chat{ID: 3, Type: "channel"}, true, true},
		{"private", telego.Chat{ID: 4, Type: "private"}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, ok := chatGroup(tt.chat)
			if ok != tt.wantOK {
				t.Fatalf("chatGroup ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && g.Broadcast != tt.wantBroadcast {
				t.Errorf("broadcast = %v, want %v", g.Broadcast, tt.wantBroadcast)
			}
		})
	}
}
