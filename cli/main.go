package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#A0522D")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0a84ff")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)

	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0a84ff"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A0522D"))
)

const (
	viewMain   = "main"
	viewChat   = "chat"
	viewMenu   = "menu"
	viewOrders = "orders"
)

// Model defines the application state
type Model struct {
	mainMenu    list.Model
	menuTable   table.Model
	ordersTable table.Model
	transcript  []ChatMessage
	info        *Information
	orderTotal  float64
	textInput   textinput.Model
	spinner     spinner.Model
	client      *ApiClient
	loading     bool
	currentView string
	error       string
}

// item represents a list item
type item struct {
	title, desc string
}

// FilterValue implements list.Item interface
func (i item) FilterValue() string { return i.title }

// Title implements list.Item interface
func (i item) Title() string { return i.title }

// Description implements list.Item interface
func (i item) Description() string { return i.desc }

func newTable(columns []table.Column) table.Model {
	return table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
}

// Initialize the model
func initialModel(client *ApiClient) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	items := []list.Item{
		item{title: "Chat", desc: "Talk to the bakery assistant and place orders"},
		item{title: "Menu", desc: "View items, prices and opening hours"},
		item{title: "Orders", desc: "View the order log"},
		item{title: "Exit", desc: "Exit the application"},
	}
	mainMenu := list.New(items, list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "Bakery Customer Service"

	ti := textinput.New()
	ti.Placeholder = "What is up?"
	ti.CharLimit = 500
	ti.Width = 60

	return Model{
		mainMenu: mainMenu,
		menuTable: newTable([]table.Column{
			{Title: "#", Width: 4},
			{Title: "Item", Width: 30},
			{Title: "Price", Width: 10},
		}),
		ordersTable: newTable([]table.Column{
			{Title: "Item", Width: 30},
			{Title: "Price", Width: 10},
		}),
		textInput:   ti,
		spinner:     s,
		client:      client,
		currentView: viewMain,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen)
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.mainMenu.SetSize(msg.Width-h, msg.Height-v)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.currentView != viewChat {
				return m, tea.Quit
			}
		case "esc":
			if m.currentView != viewMain {
				m.currentView = viewMain
				m.error = ""
				m.textInput.Blur()
				return m, nil
			}
		case "enter":
			switch m.currentView {
			case viewMain:
				selected, ok := m.mainMenu.SelectedItem().(item)
				if !ok {
					return m, nil
				}
				m.error = ""
				switch selected.title {
				case "Exit":
					return m, tea.Quit
				case "Chat":
					m.currentView = viewChat
					m.textInput.Focus()
					m.loading = true
					return m, fetchHistory(m.client)
				case "Menu":
					m.currentView = viewMenu
					m.loading = true
					return m, fetchInformation(m.client)
				case "Orders":
					m.currentView = viewOrders
					m.loading = true
					return m, fetchOrders(m.client)
				}
			case viewChat:
				message := strings.TrimSpace(m.textInput.Value())
				if message == "" || m.loading {
					return m, nil
				}
				m.textInput.SetValue("")
				m.transcript = append(m.transcript, ChatMessage{Role: "user", Content: message})
				m.loading = true
				m.error = ""
				return m, sendMessage(m.client, message)
			}
		case "r":
			switch m.currentView {
			case viewMenu:
				m.loading = true
				return m, fetchInformation(m.client)
			case viewOrders:
				m.loading = true
				return m, fetchOrders(m.client)
			}
		}
	case historyMsg:
		m.loading = false
		m.transcript = msg.messages
		return m, nil
	case replyMsg:
		m.loading = false
		m.transcript = append(m.transcript, ChatMessage{Role: "assistant", Content: msg.reply.Reply})
		return m, nil
	case chatFailedMsg:
		m.loading = false
		// the server left the transcript unchanged, so drop the pending message
		if n := len(m.transcript); n > 0 && m.transcript[n-1].Role == "user" {
			m.transcript = m.transcript[:n-1]
		}
		m.error = msg.err
		return m, nil
	case informationMsg:
		m.loading = false
		m.info = msg.info
		m.menuTable.SetRows(menuRows(msg.info.Items))
		return m, nil
	case ordersMsg:
		m.loading = false
		rows, total := orderRows(msg.orders)
		m.ordersTable.SetRows(rows)
		m.orderTotal = total
		return m, nil
	case errorMsg:
		m.loading = false
		m.error = msg.err
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.currentView {
	case viewMain:
		m.mainMenu, cmd = m.mainMenu.Update(msg)
	case viewChat:
		m.textInput, cmd = m.textInput.Update(msg)
	case viewMenu:
		m.menuTable, cmd = m.menuTable.Update(msg)
	case viewOrders:
		m.ordersTable, cmd = m.ordersTable.Update(msg)
	}
	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	switch m.currentView {
	case viewMain:
		return docStyle.Render(m.mainMenu.View())
	case viewChat:
		view := titleStyle.Render("Bakery Customer Service Chatbot") + "\n\n"
		view += transcriptView(m.transcript)
		if m.loading {
			view += m.spinner.View() + " thinking...\n"
		}
		view += "\n" + m.textInput.View() + "\n"
		view += m.footer("Press 'enter' to send, 'esc' to go back")
		return docStyle.Render(view)
	case viewMenu:
		view := titleStyle.Render("Bakery Information") + "\n\n"
		if m.info != nil {
			view += m.menuTable.View() + "\n\n"
			view += infoStyle.Render("General Information") + "\n"
			view += fmt.Sprintf("Working Hours: %s\n", m.info.Header.WorkingHours)
			view += fmt.Sprintf("Contact Information: %s\n", m.info.Header.ContactInfo)
			view += fmt.Sprintf("Location: %s\n", m.info.Header.Location)
			if m.info.Warning != "" {
				view += errorStyle.Render(m.info.Warning) + "\n"
			}
		} else if m.loading {
			view += m.spinner.View() + " loading...\n"
		}
		view += m.footer("Press 'r' to refresh, 'esc' to go back")
		return docStyle.Render(view)
	case viewOrders:
		view := titleStyle.Render("Order Log") + "\n\n"
		view += m.ordersTable.View() + "\n"
		view += fmt.Sprintf("\n%d lines, $%.2f in total\n", len(m.ordersTable.Rows()), m.orderTotal)
		view += m.footer("Press 'r' to refresh, 'esc' to go back")
		return docStyle.Render(view)
	default:
		return "Loading..."
	}
}

func (m Model) footer(help string) string {
	out := "\n" + help + "\n"
	if m.error != "" {
		out += errorStyle.Render(m.error) + "\n"
	}
	return out
}

// Custom message types for the tea.Model
type historyMsg struct {
	messages []ChatMessage
}

type replyMsg struct {
	reply *ChatReply
}

type chatFailedMsg struct {
	err string
}

type informationMsg struct {
	info *Information
}

type ordersMsg struct {
	orders []OrderLine
}

type errorMsg struct {
	err string
}

// fetchHistory retrieves the session transcript
func fetchHistory(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		messages, err := client.History()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching chat history: %v", err)}
		}
		return historyMsg{messages: messages}
	}
}

// sendMessage posts one chat message
func sendMessage(client *ApiClient, message string) tea.Cmd {
	return func() tea.Msg {
		reply, err := client.SendMessage(message)
		if err != nil {
			return chatFailedMsg{err: err.Error()}
		}
		return replyMsg{reply: reply}
	}
}

// fetchInformation retrieves the bakery menu
func fetchInformation(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		info, err := client.GetInformation()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching bakery information: %v", err)}
		}
		return informationMsg{info: info}
	}
}

// fetchOrders retrieves the order log
func fetchOrders(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		orders, err := client.GetOrders()
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching orders: %v", err)}
		}
		return ordersMsg{orders: orders}
	}
}

func menuRows(items []MenuItem) []table.Row {
	rows := make([]table.Row, len(items))
	for i, it := range items {
		rows[i] = table.Row{fmt.Sprintf("%d", i+1), it.Name, fmt.Sprintf("$%.2f", it.Price)}
	}
	return rows
}

func orderRows(lines []OrderLine) ([]table.Row, float64) {
	rows := make([]table.Row, len(lines))
	var total float64
	for i, line := range lines {
		rows[i] = table.Row{line.Item, fmt.Sprintf("$%.2f", line.Price)}
		total += line.Price
	}
	return rows, total
}

func transcriptView(messages []ChatMessage) string {
	var b strings.Builder
	for _, msg := range messages {
		if msg.Role == "user" {
			b.WriteString(userStyle.Render("You") + "\n")
		} else {
			b.WriteString(assistantStyle.Render("Bakery") + "\n")
		}
		b.WriteString(msg.Content + "\n\n")
	}
	return b.String()
}

func main() {
	client := NewApiClient()
	if _, err := client.CheckHealth(); err != nil {
		fmt.Printf("Warning: API server at %s is not available: %v\n", client.BaseURL, err)
	}

	p := tea.NewProgram(initialModel(client))
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
