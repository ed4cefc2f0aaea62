package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type view struct {
	name   string
	render func(doc *runtime.Document) (string, error)
}

var views = []view{
	{"Markdown", func(d *runtime.Document) (string, error) {
		return d.ToMarkdown(unpdf.MarkdownOptions{IncludeFrontmatter: true, ParagraphSpacing: true})
	}},
	{"Text", func(d *runtime.Document) (string, error) { return d.ToText() }},
	{"Plain text", func(d *runtime.Document) (string, error) { return d.PlainText() }},
	{"JSON", func(d *runtime.Document) (string, error) { return d.ToJSON(false) }},
	{"Summary", func(d *runtime.Document) (string, error) {
		s, err := d.Info()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Title:     %s\nAuthor:    %s\nSections:  %d\nResources: %d\n",
			s.Title, s.Author, s.SectionCount, s.ResourceCount), nil
	}},
}

type modelState int

const (
	stateMenu modelState = iota
	stateContent
	stateResources
	stateExport
)

type browserModel struct {
	err       error
	rt        *runtime.Runtime
	doc       *runtime.Document
	filename  string
	status    string
	resources []*unpdf.ResourceInfo
	content   viewport.Model
	input     textinput.Model
	selected  int
	resIdx    int
	width     int
	height    int
	state     modelState
}

type loadedMsg struct {
	err       error
	doc       *runtime.Document
	resources []*unpdf.ResourceInfo
}

type renderedMsg struct {
	err  error
	text string
}

type exportedMsg struct {
	err  error
	path string
}

func newBrowserModel(rt *runtime.Runtime, filename string) *browserModel {
	ti := textinput.New()
	ti.Prompt = "save to: "
	ti.Width = 60

	return &browserModel{
		rt:       rt,
		filename: filename,
		content:  viewport.New(80, 20),
		input:    ti,
		state:    stateMenu,
	}
}

func (m *browserModel) Init() tea.Cmd {
	return m.load
}

func (m *browserModel) load() tea.Msg {
	doc, err := m.rt.ParseFile(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	resources, err := doc.Resources()
	if err != nil {
		doc.Close()
		return loadedMsg{err: err}
	}
	return loadedMsg{doc: doc, resources: resources}
}

// menuLen counts the render views plus the resource browser entry.
func (m *browserModel) menuLen() int {
	return len(views) + 1
}

func (m *browserModel) render() tea.Msg {
	text, err := views[m.selected].render(m.doc)
	return renderedMsg{text: text, err: err}
}

func (m *browserModel) export() tea.Msg {
	r := m.resources[m.resIdx]
	data, err := m.doc.ResourceData(r.ID)
	if err != nil {
		return exportedMsg{err: err}
	}
	if data == nil {
		return exportedMsg{err: fmt.Errorf("resource %s has no data", r.ID)}
	}
	path, err := exportResource(m.input.Value(), r, data)
	return exportedMsg{path: path, err: err}
}

func (m *browserModel) quit() (tea.Model, tea.Cmd) {
	if m.doc != nil {
		m.doc.Close()
	}
	return m, tea.Quit
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.content.Width = msg.Width
		m.content.Height = max(msg.Height-4, 1)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.state == stateExport {
			return m.updateExport(msg)
		}

		switch msg.String() {
		case "q":
			return m.quit()

		case "up", "k":
			switch m.state {
			case stateMenu:
				if m.selected > 0 {
					m.selected--
				}
			case stateResources:
				if m.resIdx > 0 {
					m.resIdx--
				}
			}

		case "down", "j":
			switch m.state {
			case stateMenu:
				if m.selected < m.menuLen()-1 {
					m.selected++
				}
			case stateResources:
				if m.resIdx < len(m.resources)-1 {
					m.resIdx++
				}
			}

		case "enter":
			switch m.state {
			case stateMenu:
				if m.doc == nil {
					return m, nil
				}
				if m.selected == len(views) {
					m.state = stateResources
					m.status = ""
					return m, nil
				}
				return m, m.render
			case stateResources:
				if len(m.resources) > 0 {
					m.input.SetValue(".")
					m.input.Focus()
					m.state = stateExport
				}
			}
			return m, nil

		case "esc":
			m.state = stateMenu
			m.err = nil
			return m, nil
		}

	case loadedMsg:
		m.err = msg.err
		m.doc = msg.doc
		m.resources = msg.resources
		return m, nil

	case renderedMsg:
		m.err = msg.err
		m.content.SetContent(msg.text)
		m.content.GotoTop()
		m.state = stateContent
		return m, nil

	case exportedMsg:
		m.state = stateResources
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("export failed: %v", msg.err))
		} else {
			m.status = resultStyle.Render("wrote " + msg.path)
		}
		return m, nil
	}

	if m.state == stateContent {
		var cmd tea.Cmd
		m.content, cmd = m.content.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *browserModel) updateExport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.input.Blur()
		m.state = stateResources
		return m, nil
	case "enter":
		m.input.Blur()
		return m, m.export
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *browserModel) View() string {
	if m.doc == nil {
		if m.err != nil {
			return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
		}
		return "Parsing " + m.filename + "..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("unpdf"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateMenu:
		for i := 0; i < m.menuLen(); i++ {
			name := "Resources"
			if i < len(views) {
				name = views[i].name
			}
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + name))
			} else {
				b.WriteString("  " + itemStyle.Render(name))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter open • q quit"))

	case stateContent:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n\n")
		} else {
			b.WriteString(m.content.View())
			b.WriteString("\n")
		}
		b.WriteString(helpStyle.Render(fmt.Sprintf("%3.f%% • ↑/↓ scroll • esc back • q quit", m.content.ScrollPercent()*100)))

	case stateResources, stateExport:
		if len(m.resources) == 0 {
			b.WriteString("No embedded resources.\n")
		}
		for i, r := range m.resources {
			line := formatResource(r)
			if i == m.resIdx {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateExport {
			b.WriteString(m.input.View())
			b.WriteString("\n")
			b.WriteString(helpStyle.Render("enter save • esc cancel"))
		} else {
			if m.status != "" {
				b.WriteString(m.status)
				b.WriteString("\n")
			}
			b.WriteString(helpStyle.Render("↑/↓ select • enter export • esc back • q quit"))
		}
	}

	return b.String()
}

func runInteractive(rt *runtime.Runtime, filename string) error {
	p := tea.NewProgram(newBrowserModel(rt, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
