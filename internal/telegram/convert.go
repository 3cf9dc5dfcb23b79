package telegram

import (
	"strconv"

	"github.com/mymmrac/telego"

	"github.com/nextlevelbuilder/grindbot/internal/transport"
)

// toMessage reduces a platform message to the transport-neutral shape the
// router consumes. Photos keep only the highest-resolution variant; image
// documents count as downloadable media but not as photos.
func toMessage(msg *telego.Message) transport.Message {
	m := transport.Message{
		Ref:     transport.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.MessageID},
		ChatID:  msg.Chat.ID,
		Sender:  senderOf(msg),
		Text:    msg.Text,
		RawText: msg.Caption,
	}
	if len(msg.Photo) > 0 {
		m.HasPhoto = true
		// Sizes are ordered small to large; take the last.
		m.MediaID = msg.Photo[len(msg.Photo)-1].FileID
	} else if msg.Document != nil {
		m.MediaID = msg.Document.FileID
	}
	if msg.ReplyMarkup != nil {
		m.Buttons = toButtons(msg.ReplyMarkup)
	}
	return m
}

func senderOf(msg *telego.Message) string {
	if msg.From == nil {
		return ""
	}
	if msg.From.Username != "" {
		return msg.From.Username
	}
	return strconv.FormatInt(msg.From.ID, 10)
}

func toButtons(markup *telego.InlineKeyboardMarkup) [][]transport.Button {
	rows := make([][]transport.Button, 0, len(markup.InlineKeyboard))
	for _, line := range markup.InlineKeyboard {
		row := make([]transport.Button, 0, len(line))
		for _, b := range line {
			row = append(row, transport.Button{
				Text: b.Text,
				URL:  b.URL,
				Data: b.CallbackData,
			})
		}
		rows = append(rows, row)
	}
	return rows
}

// chatGroup maps a chat to the registry's group shape. Private chats are
// not groups and are not registered.
func chatGroup(chat telego.Chat) (transport.Group, bool) {
	switch chat.Type {
	case "group", "supergroup", "channel":
	default:
		return transport.Group{}, false
	}
	return transport.Group{
		ID:        chat.ID,
		Title:     chat.Title,
		Broadcast: chat.Type == "channel",
	}, true
}
