package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/scopeview/pkg/pipeline"
	"github.com/matzehuels/scopeview/pkg/render"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var sf scopeFlags

	cmd := &cobra.Command{
		Use:   "explore [graph.json]",
		Short: "Browse the scopes of an op graph interactively",
		Long: `Browse the scopes of an op graph interactively.

Each screen lists the children of one scope. Enter opens a child scope,
building it on first visit; backspace returns to the parent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := sf.options(args[0])
			if err != nil {
				return err
			}
			return c.runExplore(cmd.Context(), opts)
		},
	}
	sf.register(cmd)
	return cmd
}

func (c *CLI) runExplore(ctx context.Context, opts pipeline.Options) error {
	opts.Logger = loggerFromContext(ctx)
	if err := opts.ValidateForLoad(); err != nil {
		return err
	}
	if err := opts.ValidateForExpand(); err != nil {
		return err
	}
	result, err := c.newRunner(true).Prepare(ctx, opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(newExploreModel(result.Graph, result.Scope), tea.WithContext(ctx), tea.WithOutput(c.out()))
	_, err = p.Run()
	return err
}

// =============================================================================
// exploreModel - Interactive scope browser
// =============================================================================

type exploreKeys struct {
	Up   key.Binding
	Down key.Binding
	Open key.Binding
	Back key.Binding
	Help key.Binding
	Quit key.Binding
}

var defaultExploreKeys = exploreKeys{
	Up:   key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down: key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open: key.NewBinding(key.WithKeys("enter", "right", "l"), key.WithHelp("⏎", "open")),
	Back: key.NewBinding(key.WithKeys("backspace", "left", "h"), key.WithHelp("⌫", "parent")),
	Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k exploreKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Open, k.Back, k.Help, k.Quit}
}

func (k exploreKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down}, {k.Open, k.Back}, {k.Help, k.Quit}}
}

// exploreModel is the bubbletea model for browsing scopes.
type exploreModel struct {
	g       *render.GraphInfo
	scope   *render.NodeInfo
	entries []scopeEntry

	cursor int
	offset int
	height int

	// status is a one-line message shown under the list until the next key.
	status string

	keys exploreKeys
	help help.Model
}

func newExploreModel(g *render.GraphInfo, scope *render.NodeInfo) exploreModel {
	return exploreModel{
		g:       g,
		scope:   scope,
		entries: scopeEntries(g, scope),
		height:  15,
		keys:    defaultExploreKeys,
		help:    help.New(),
	}
}

func (m exploreModel) Init() tea.Cmd {
	return nil
}

func (m exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.status = ""
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case key.Matches(msg, m.keys.Open):
			return m.open(), nil
		case key.Matches(msg, m.keys.Back):
			return m.up(), nil
		}
	case tea.WindowSizeMsg:
		m.height = max(msg.Height-8, 5)
		m.help.Width = msg.Width
	}
	return m, nil
}

// open descends into the selected child if it is a group.
func (m exploreModel) open() exploreModel {
	if len(m.entries) == 0 {
		return m
	}
	sel := m.entries[m.cursor].info
	if !sel.Node.IsGroup() {
		m.status = sel.Node.Name + " is an op"
		return m
	}
	info, ok := m.g.Scope(sel.Node.Name)
	if !ok {
		m.status = "cannot open " + sel.Node.Name
		return m
	}
	info.Expanded = true
	return m.show(info, 0)
}

// up returns to the parent scope with the cursor on the scope just left.
func (m exploreModel) up() exploreModel {
	parent := m.scope.Node.ParentName()
	if parent == "" {
		m.status = "already at the root"
		return m
	}
	info, ok := m.g.Scope(parent)
	if !ok {
		return m
	}
	left := m.scope.Node.Name
	m = m.show(info, 0)
	for i, e := range m.entries {
		if e.info.Node.Name == left {
			m.cursor = i
			m.offset = max(i-m.height+1, 0)
			break
		}
	}
	return m
}

func (m exploreModel) show(info *render.NodeInfo, cursor int) exploreModel {
	m.scope = info
	m.entries = scopeEntries(m.g, info)
	m.cursor = cursor
	m.offset = 0
	return m
}

func (m exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Scope " + scopeLabel(m.g, m.scope.Name())))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(listDimStyle.Render("  (empty)"))
		b.WriteString("\n")
	}

	end := min(m.offset+m.height, len(m.entries))
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		line := fmt.Sprintf("%s%-32s %-20s %s", cursor, e.info.DisplayName, entryKind(e.info), e.place)
		switch {
		case i == m.cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case e.place != placeCore:
			b.WriteString(listDimStyle.Render(line))
		case e.info.Node.IsGroup():
			b.WriteString(StyleGroup.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if len(m.entries) > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.entries))))
	}
	if m.status != "" {
		b.WriteString("  " + StyleWarning.Render(m.status))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
