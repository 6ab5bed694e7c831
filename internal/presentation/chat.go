package presentation

import "github.com/kirillkom/startup-scout/internal/core/domain"

const (
	ChatTitle        = "Chat with LLM"
	ChatPlaceholder  = "Type a message..."
	ChatTypingNotice = "LLM is typing..."
)

type ChatLine struct {
	Speaker  string
	Text     string
	FromUser bool
}

type ChatPanelView struct {
	Open   bool
	Title  string
	Lines  []ChatLine
	Typing bool
	Prompt string
}

func BuildChatPanel(chat domain.ChatSnapshot) ChatPanelView {
	view := ChatPanelView{
		Open:   chat.Open,
		Title:  ChatTitle,
		Typing: chat.Pending > 0,
		Prompt: ChatPlaceholder,
		Lines:  make([]ChatLine, 0, len(chat.Messages)),
	}
	for _, msg := range chat.Messages {
		line := ChatLine{Text: msg.Text, FromUser: msg.Role == domain.RoleUser}
		if line.FromUser {
			line.Speaker = "You"
		} else {
			line.Speaker = "Scout"
		}
		view.Lines = append(view.Lines, line)
	}
	return view
}
