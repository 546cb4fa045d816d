package main

import (
	"fmt"
	"strings"

	"github.com/DemioMAD/demiochatplus/internal/render"
)

func (m *appModel) refreshTranscript() {
	if m.controller == nil {
		return
	}

	principal := m.controller.Principal()
	sb := strings.Builder{}

	for i, message := range m.controller.Messages() {
		author := authorStyle.Render(message.AuthorName)
		if render.IsMine(message, principal) {
			author = mineStyle.Render(message.AuthorName + " (you)")
		}
		header := fmt.Sprintf("%s  %s", author, faintStyle.Render(message.CreatedAt.Local().Format("2 Jan 2006 15:04")))
		if m.selecting && i == m.selected {
			header = selStyle.Render("> ") + header
		}
		sb.WriteString(header)
		sb.WriteString("\n")

		if message.Body != "" {
			sb.WriteString(m.renderer.Body(message))
			sb.WriteString("\n")
		}
		if message.AttachmentLink != "" {
			sb.WriteString(fileStyle.Render("📎 " + render.AttachmentName(message.AttachmentLink)))
			sb.WriteString("\n")
			sb.WriteString(faintStyle.Render("   " + message.AttachmentLink))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	m.viewport.SetContent(sb.String())
}

func (m appModel) View() string {
	if !m.ready {
		return "loading..."
	}

	switch m.page {
	case pageEntry:
		return m.viewEntry()
	case pageLogin:
		return m.viewForm("Login")
	case pageRegister:
		return m.viewForm("Register")
	case pageChat:
		return m.viewChat()
	}
	return ""
}

func (m appModel) viewEntry() string {
	sb := strings.Builder{}
	sb.WriteString(titleStyle.Render("Demiochat+"))
	sb.WriteString("\n")
	sb.WriteString(faintStyle.Render("A new way to experience Demiochat."))
	sb.WriteString("\n\n")
	if m.reason == "account_deleted" {
		sb.WriteString(errorStyle.Render("This account has been deleted."))
		sb.WriteString("\n\n")
	}
	sb.WriteString("[l] login   [r] register   [q] quit\n")
	return sb.String()
}

func (m appModel) viewForm(title string) string {
	sb := strings.Builder{}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	if m.errText != "" {
		sb.WriteString(errorStyle.Render(m.errText))
		sb.WriteString("\n\n")
	}
	for _, input := range m.inputs {
		sb.WriteString(input.View())
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(faintStyle.Render("enter: next/submit  tab: move  esc: back"))
	sb.WriteString("\n")
	return sb.String()
}

func (m appModel) viewChat() string {
	sb := strings.Builder{}
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")

	switch m.confirm {
	case confirmDeleteMessage:
		sb.WriteString(errorStyle.Render("Are you sure you want to delete this message? [y/n]"))
	case confirmSignOut:
		sb.WriteString(errorStyle.Render("Sign out? [y/n]"))
	case confirmDeleteAccount:
		sb.WriteString(errorStyle.Render("Delete your account? [y/n]"))
	default:
		if m.attaching {
			sb.WriteString("Attach file: ")
			sb.WriteString(m.attachInput.View())
		} else {
			if m.errText != "" {
				sb.WriteString(errorStyle.Render(m.errText))
				sb.WriteString("\n")
			}
			if m.composer != nil && m.composer.Attachment() != nil {
				sb.WriteString(fileStyle.Render("attached: " + m.composer.Attachment().Name + "  (ctrl+x to unlink)"))
				sb.WriteString("\n")
			}
			sb.WriteString(m.textarea.View())
		}
	}
	sb.WriteString("\n")
	sb.WriteString(faintStyle.Render("enter: send  shift+enter: newline  tab: select  ctrl+a: attach  ctrl+o: sign out  ctrl+k: delete account"))
	return sb.String()
}
