// Terminal client for Demiochat+: entry, login, register and the chat
// feed as bubbletea pages.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DemioMAD/demiochatplus/internal/feed"
	"github.com/DemioMAD/demiochatplus/internal/model"
	"github.com/DemioMAD/demiochatplus/internal/render"
	"github.com/DemioMAD/demiochatplus/pkg/client"
)

type page int

const (
	pageEntry page = iota
	pageLogin
	pageRegister
	pageChat
)

type confirmAction int

const (
	confirmNone confirmAction = iota
	confirmDeleteMessage
	confirmSignOut
	confirmDeleteAccount
)

type (
	errMsg       error
	signedInMsg  struct{ principal *model.Principal }
	mountedMsg   struct{ controller *feed.Controller }
	feedTickMsg  struct{}
	sentMsg      struct{}
	noopMsg      struct{}
	deletedMsg   struct{}
	signedOutMsg struct{ reason string }
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	faintStyle  = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	authorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	mineStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("114"))
	fileStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("179"))
	selStyle    = lipgloss.NewStyle().Background(lipgloss.Color("237"))
)

type appModel struct {
	client  *client.Client
	backend feed.Backend

	page    page
	reason  string
	errText string

	inputs   []textinput.Model
	focusIdx int

	controller *feed.Controller
	composer   *feed.Composer
	renderer   *render.Renderer
	viewport   viewport.Model
	textarea   textarea.Model
	events     chan struct{}

	sending   bool
	selecting bool
	selected  int
	confirm   confirmAction
	confirmID model.MessageID

	attaching   bool
	attachInput textinput.Model

	width  int
	height int
	ready  bool
}

func newApp(backendClient *client.Client) appModel {
	ta := textarea.New()
	ta.Placeholder = "Say something!"
	ta.SetHeight(3)
	ta.CharLimit = 4096
	// Plain enter submits; shift+enter makes the line break.
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("shift+enter"))

	ai := textinput.New()
	ai.Placeholder = "/path/to/file"

	return appModel{
		client:      backendClient,
		backend:     backendAdapter{backendClient},
		page:        pageEntry,
		textarea:    ta,
		attachInput: ai,
		viewport:    viewport.New(80, 20),
		events:      make(chan struct{}, 1),
	}
}

func (m appModel) Init() tea.Cmd {
	return textinput.Blink
}

func makeForm(labels ...string) []textinput.Model {
	inputs := make([]textinput.Model, len(labels))
	for i, label := range labels {
		ti := textinput.New()
		ti.Placeholder = label
		ti.CharLimit = 256
		if strings.Contains(strings.ToLower(label), "password") {
			ti.EchoMode = textinput.EchoPassword
		}
		if i == 0 {
			ti.Focus()
		}
		inputs[i] = ti
	}
	return inputs
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 8
		m.textarea.SetWidth(msg.Width - 2)
		m.renderer, _ = render.New(min(msg.Width-4, 100))
		m.ready = true
		if m.page == pageChat {
			m.refreshTranscript()
		}
		return m, nil

	case errMsg:
		m.errText = msg.Error()
		m.sending = false
		return m, nil

	case signedInMsg:
		m.errText = ""
		return m, m.mountChat()

	case mountedMsg:
		m.controller = msg.controller
		m.composer = feed.NewComposer(m.backend, msg.controller.Principal())
		m.page = pageChat
		m.errText = ""
		m.selecting = false
		m.confirm = confirmNone
		m.textarea.Reset()
		m.textarea.Focus()
		m.refreshTranscript()
		return m, m.waitForFeed()

	case feedTickMsg:
		if m.controller == nil {
			// Stray tick from a feed that was unmounted; do not re-arm.
			return m, nil
		}
		m.refreshTranscript()
		m.viewport.GotoBottom()
		return m, m.waitForFeed()

	case sentMsg:
		m.sending = false
		m.errText = ""
		m.textarea.Reset()
		return m, nil

	case noopMsg:
		m.sending = false
		return m, nil

	case deletedMsg:
		m.refreshTranscript()
		return m, nil

	case signedOutMsg:
		m.unmountChat()
		m.page = pageEntry
		m.reason = msg.reason
		m.errText = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.unmountChat()
		return m, tea.Quit
	}

	switch m.page {
	case pageEntry:
		switch msg.String() {
		case "l":
			m.page = pageLogin
			m.inputs = makeForm("Email", "Password")
			m.focusIdx = 0
			m.errText = ""
		case "r":
			m.page = pageRegister
			m.inputs = makeForm("Username", "Email", "Password")
			m.focusIdx = 0
			m.errText = ""
		case "q":
			return m, tea.Quit
		}
		return m, nil

	case pageLogin, pageRegister:
		return m.handleFormKey(msg)

	case pageChat:
		return m.handleChatKey(msg)
	}
	return m, nil
}

func (m appModel) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.page = pageEntry
		m.errText = ""
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		m.setFocus((m.focusIdx + 1) % len(m.inputs))
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.setFocus((m.focusIdx + len(m.inputs) - 1) % len(m.inputs))
		return m, nil
	case tea.KeyEnter:
		if m.focusIdx < len(m.inputs)-1 {
			m.setFocus(m.focusIdx + 1)
			return m, nil
		}
		for _, input := range m.inputs {
			if input.Value() == "" {
				m.errText = "all fields must be filled in"
				return m, nil
			}
		}
		if m.page == pageLogin {
			return m, m.signIn(m.inputs[0].Value(), m.inputs[1].Value())
		}
		return m, m.signUp(m.inputs[0].Value(), m.inputs[1].Value(), m.inputs[2].Value())
	}
	return m.updateFocused(msg)
}

func (m *appModel) setFocus(idx int) {
	m.focusIdx = idx
	for i := range m.inputs {
		if i == idx {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m appModel) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != confirmNone {
		switch msg.String() {
		case "y", "Y":
			action := m.confirm
			id := m.confirmID
			m.confirm = confirmNone
			switch action {
			case confirmDeleteMessage:
				return m, m.deleteMessage(id)
			case confirmSignOut:
				return m, m.signOut("")
			case confirmDeleteAccount:
				return m, m.deleteAccount()
			}
		default:
			m.confirm = confirmNone
		}
		return m, nil
	}

	if m.attaching {
		switch msg.Type {
		case tea.KeyEsc:
			m.attaching = false
			return m, nil
		case tea.KeyEnter:
			path := strings.TrimSpace(m.attachInput.Value())
			m.attaching = false
			if path == "" {
				return m, nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				m.errText = fmt.Sprintf("reading file: %v", err)
				return m, nil
			}
			m.composer.Attach(&feed.Attachment{Name: filepath.Base(path), Data: data})
			m.errText = ""
			return m, nil
		}
		var cmd tea.Cmd
		m.attachInput, cmd = m.attachInput.Update(msg)
		return m, cmd
	}

	if m.selecting {
		messages := m.controller.Messages()
		switch msg.String() {
		case "esc", "tab":
			m.selecting = false
			m.textarea.Focus()
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(messages)-1 {
				m.selected++
			}
		case "d":
			if m.selected < len(messages) {
				target := messages[m.selected]
				if render.IsMine(target, m.controller.Principal()) {
					m.confirm = confirmDeleteMessage
					m.confirmID = target.ID
				}
			}
		}
		m.refreshTranscript()
		return m, nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		if m.sending || m.composer == nil {
			return m, nil
		}
		m.sending = true
		return m, m.submit()
	case tea.KeyTab:
		m.selecting = true
		m.textarea.Blur()
		messages := m.controller.Messages()
		if m.selected >= len(messages) {
			m.selected = max(len(messages)-1, 0)
		}
		m.refreshTranscript()
		return m, nil
	case tea.KeyCtrlA:
		m.attaching = true
		m.attachInput.Reset()
		m.attachInput.Focus()
		return m, nil
	case tea.KeyCtrlX:
		m.composer.ClearAttachment()
		return m, nil
	case tea.KeyCtrlO:
		m.confirm = confirmSignOut
		return m, nil
	case tea.KeyCtrlK:
		m.confirm = confirmDeleteAccount
		return m, nil
	}

	return m.updateFocused(msg)
}

func (m appModel) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch m.page {
	case pageLogin, pageRegister:
		for i := range m.inputs {
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
	case pageChat:
		if m.composer != nil && !m.selecting {
			m.textarea, cmd = m.textarea.Update(msg)
			m.composer.SetText(m.textarea.Value())
			cmds = append(cmds, cmd)
		}
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// mountChat opens the feed controller; a deactivated account bounces back
// to the entry page with its reason marker.
func (m appModel) mountChat() tea.Cmd {
	events := m.events
	backend := m.backend
	return func() tea.Msg {
		controller, err := feed.Open(context.Background(), backend, func() {
			select {
			case events <- struct{}{}:
			default:
			}
		})
		if err != nil {
			if err == model.ErrorAccountDeactivated {
				return signedOutMsg{reason: "account_deleted"}
			}
			return errMsg(err)
		}
		return mountedMsg{controller}
	}
}

func (m *appModel) unmountChat() {
	if m.controller != nil {
		m.controller.Close()
		m.controller = nil
		m.composer = nil
		// Release any pending waitForFeed reader; the next mount gets a
		// fresh channel.
		close(m.events)
		m.events = make(chan struct{}, 1)
	}
}

func (m appModel) waitForFeed() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		<-events
		return feedTickMsg{}
	}
}

func (m appModel) signIn(email string, password string) tea.Cmd {
	return func() tea.Msg {
		principal, err := m.client.SignIn(context.Background(), email, password)
		if err != nil {
			return errMsg(err)
		}
		return signedInMsg{principal}
	}
}

func (m appModel) signUp(username string, email string, password string) tea.Cmd {
	return func() tea.Msg {
		principal, err := m.client.SignUp(context.Background(), model.CreateUserParams{
			DisplayName: username,
			Email:       email,
			Password:    password,
		})
		if err != nil {
			return errMsg(err)
		}
		return signedInMsg{principal}
	}
}

func (m appModel) submit() tea.Cmd {
	composer := m.composer
	return func() tea.Msg {
		sent, err := composer.Submit(context.Background())
		if err != nil {
			return errMsg(err)
		}
		if !sent {
			// Nothing to send: silently keep the (empty) draft.
			return noopMsg{}
		}
		return sentMsg{}
	}
}

func (m appModel) deleteMessage(id model.MessageID) tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		// Failures no-op: local state only changes on confirmed success.
		if err := controller.Delete(context.Background(), id); err != nil {
			return deletedMsg{}
		}
		return deletedMsg{}
	}
}

func (m appModel) signOut(reason string) tea.Cmd {
	backendClient := m.client
	return func() tea.Msg {
		_ = backendClient.SignOut(context.Background())
		return signedOutMsg{reason: reason}
	}
}

func (m appModel) deleteAccount() tea.Cmd {
	backendClient := m.client
	return func() tea.Msg {
		if err := backendClient.DeactivateAccount(context.Background()); err != nil {
			return errMsg(err)
		}
		return signedOutMsg{reason: "account_deleted"}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
