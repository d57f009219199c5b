package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/censo/internal/converter"
	"github.com/nconklindev/censo/internal/engine"
	"github.com/nconklindev/censo/internal/schema"
	"github.com/nconklindev/censo/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateFormatSelection state = iota
	stateFilePicker
	stateColumnMapping
	stateProcessing
	stateComplete
	stateError
)

// Options carries the configured collaborators of the TUI.
type Options struct {
	Registry     *schema.Registry
	OutputSuffix string
	Export       converter.ExportOptions
}

type Model struct {
	state        state
	opts         Options
	formats      []schema.ImportFormat
	format       schema.ImportFormat
	specs        []schema.FieldSpec
	filepicker   filepicker.Model
	selectedFile string
	fileData     *types.FileData
	mapping      engine.ColumnMapping
	issues       []engine.RequiredIssue
	cursor       int
	offset       int
	result       *types.ConversionResult
	err          error
	width        int
	height       int
	progress     progress.Model
	progressChan chan float64
	resultChan   chan conversionResultMsg
}

type conversionResultMsg struct {
	result *types.ConversionResult
	err    error
}

type fileLoadedMsg struct {
	data *types.FileData
	err  error
}

type conversionCompleteMsg struct {
	result *types.ConversionResult
	err    error
}

type progressMsg float64

type waitForProgressMsg struct{}

func InitialModel(opts Options) Model {
	if opts.Registry == nil {
		opts.Registry = schema.Default()
	}

	fp := filepicker.New()
	fp.AllowedTypes = []string{".csv", ".xlsx"}
	fp.CurrentDirectory, _ = os.Getwd()

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(accent)
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(accentAlt)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(accentAlt)
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(muted)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(accent).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(muted)

	prog := progress.New(progress.WithGradient("#12A37F", "#5ED3B4"))

	return Model{
		state:      stateFormatSelection,
		opts:       opts,
		formats:    opts.Registry.Formats(),
		filepicker: fp,
		progress:   prog,
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		height := msg.Height - 14
		if height < 5 {
			height = 5
		}

		m.filepicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateFormatSelection:
			return m.updateFormatSelection(msg)

		case stateFilePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "esc":
				m.state = stateFormatSelection
				return m, nil
			}

		case stateColumnMapping:
			return m.updateColumnMapping(msg)

		case stateComplete, stateError:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case fileLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.fileData = msg.data
		m.mapping = engine.SuggestMapping(msg.data.Headers, m.specs)
		m.issues = engine.CheckRequired(msg.data, m.format)
		m.cursor, m.offset = 0, 0
		m.state = stateColumnMapping
		return m, nil

	case conversionCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			return m, m.loadFile(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m Model) updateFormatSelection(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.formats)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.formats) == 0 {
			return m, nil
		}
		m.format = m.formats[m.cursor]
		m.specs = m.format.Fields()
		m.cursor = 0
		m.state = stateFilePicker
	}
	return m, nil
}

func (m Model) updateColumnMapping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.specs)-1 {
			m.cursor++
		}
	case "right", "l":
		m.cycleSource(1)
	case "left", "h":
		m.cycleSource(-1)
	case "x", "backspace":
		m.setSource("")
	case "s":
		m.mapping = engine.SuggestMapping(m.fileData.Headers, m.specs)
	case "enter":
		m.state = stateProcessing
		return m.convertFile()
	}
	m.scrollToCursor()
	return m, nil
}

// cycleSource moves the current field's choice through "unmapped" and every
// source header. Picking a header already used elsewhere is allowed.
func (m *Model) cycleSource(step int) {
	if len(m.specs) == 0 {
		return
	}
	choices := append([]string{""}, m.fileData.Headers...)
	current := m.mapping[m.specs[m.cursor].Name]

	idx := 0
	for i, c := range choices {
		if c == current {
			idx = i
			break
		}
	}
	idx = (idx + step + len(choices)) % len(choices)
	m.setSource(choices[idx])
}

// setSource replaces the mapping rather than mutating it, since Bubble Tea
// models are copied by value and share the map.
func (m *Model) setSource(source string) {
	if len(m.specs) == 0 {
		return
	}
	next := make(engine.ColumnMapping, len(m.mapping))
	for k, v := range m.mapping {
		next[k] = v
	}
	next[m.specs[m.cursor].Name] = source
	m.mapping = next
}

func (m Model) visibleRows() int {
	rows := m.height - 18
	if rows < 5 {
		rows = 5
	}
	return rows
}

func (m *Model) scrollToCursor() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m Model) loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		data, err := converter.ReadFileData(path)
		return fileLoadedMsg{data: data, err: err}
	}
}

func (m Model) convertFile() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan conversionResultMsg, 1)

	cmd := tea.Batch(
		func() tea.Msg {
			progressChan := m.progressChan
			resultChan := m.resultChan
			req := converter.ConvertRequest{
				InputFile:  m.selectedFile,
				OutputFile: converter.OutputPath(m.selectedFile, m.opts.OutputSuffix),
				FormatID:   m.format.ID,
				Mapping:    m.mapping,
				Registry:   m.opts.Registry,
				Export:     m.opts.Export,
			}

			go func() {
				result, err := converter.Convert(req, progressChan)

				resultChan <- conversionResultMsg{result: result, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		waitForProgress(m.progressChan, m.resultChan),
		m.progress.Init(),
	)

	return m, cmd
}

func waitForProgress(progressChan chan float64, resultChan chan conversionResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			res, ok := <-resultChan
			if ok {
				return conversionCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateFormatSelection:
		return m.viewFormatSelection()
	case stateFilePicker:
		return m.viewFilePicker()
	case stateColumnMapping:
		return m.viewColumnMapping()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFormatSelection() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Censo - Validador de Importações"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select the import format"))
	s.WriteString("\n\n")

	for i, f := range m.formats {
		line := UnselectedStyle.Render(fmt.Sprintf("  %s (%d fields)", f.Title, len(f.Fields())))
		if m.cursor == i {
			line = SelectedStyle.Render(fmt.Sprintf("> %s (%d fields)", f.Title, len(f.Fields())))
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("↑/↓: navigate • enter: choose • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render(m.format.Title))
	s.WriteString("\n")
	s.WriteString(m.viewTierLegend())
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select a CSV or XLSX roster to import"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("esc: change format • q: quit"))

	return s.String()
}

func (m Model) viewTierLegend() string {
	counts := make(map[schema.Tier]int)
	for _, spec := range m.specs {
		counts[spec.Tier]++
	}
	parts := make([]string, 0, 3)
	for _, tier := range []schema.Tier{schema.Required, schema.Conditional, schema.Optional} {
		parts = append(parts, fmt.Sprintf("%s %d %s", tier.Icon(), counts[tier], tier))
	}
	return MutedStyle.Render(strings.Join(parts, "  "))
}

func (m Model) viewColumnMapping() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Map Columns"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("File: %s • Format: %s • %d rows",
		filepath.Base(m.selectedFile), m.format.Title, len(m.fileData.Rows))))
	s.WriteString("\n\n")

	if len(m.issues) == 0 {
		s.WriteString(SuccessStyle.Render("✓ File is ready for import"))
		s.WriteString("\n")
	} else {
		for _, issue := range m.issues {
			s.WriteString(WarningStyle.Render("! " + issue.Message))
			s.WriteString("\n")
		}
	}
	s.WriteString("\n")

	uses := make(map[string]int)
	for _, source := range m.mapping {
		if source != "" {
			uses[source]++
		}
	}

	end := m.offset + m.visibleRows()
	if end > len(m.specs) {
		end = len(m.specs)
	}

	for i := m.offset; i < end; i++ {
		spec := m.specs[i]
		source := m.mapping[spec.Name]

		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}

		target := fmt.Sprintf("%s %s %-36s", cursor, spec.Tier.Icon(), spec.Name)
		if _, ok := engine.ValidatorFor(spec.Name); ok {
			target += InfoStyle.Render(" ✓")
		} else {
			target += "  "
		}

		var choice string
		switch {
		case source == "":
			choice = MutedStyle.Render("(unmapped)")
		case uses[source] > 1:
			choice = WarningStyle.Render("← " + source + " (used twice)")
		default:
			choice = MappedStyle.Render("← " + source)
		}

		line := target + " " + choice
		if m.cursor == i {
			line = SelectedStyle.Render(target) + " " + choice
		}

		s.WriteString(line)
		s.WriteString("\n")
	}

	if len(m.specs) > end-m.offset {
		s.WriteString(MutedStyle.Render(fmt.Sprintf("  %d-%d of %d fields", m.offset+1, end, len(m.specs))))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("↑/↓: navigate • ←/→: choose column • x: unmap • s: suggest • enter: convert • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("Processing..."))
	s.WriteString("\n\n")
	s.WriteString("Normalizing and validating roster...")
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Conversion Complete!"))
	s.WriteString("\n\n")

	maxPathLen := m.width - 20
	if maxPathLen < 30 {
		maxPathLen = 30
	}

	s.WriteString(fmt.Sprintf("Input:  %s\n", truncatePath(m.result.InputFile, maxPathLen)))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output: %s", truncatePath(m.result.OutputFile, maxPathLen))))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Format: %s\n", m.result.Format))
	s.WriteString(fmt.Sprintf("Rows processed: %d\n", m.result.RowsProcessed))

	if m.result.InvalidCells == 0 {
		s.WriteString(SuccessStyle.Render("No invalid cells"))
	} else {
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("Invalid cells: %d in %d row(s)", m.result.InvalidCells, m.result.InvalidRows)))
	}
	s.WriteString("\n")

	for _, issue := range m.result.Issues {
		s.WriteString(WarningStyle.Render("! " + issue))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("Press enter or q to exit"))

	return BoxStyle.Render(s.String())
}

func truncatePath(path string, max int) string {
	if len(path) > max {
		return "..." + path[len(path)-max+3:]
	}
	return path
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press enter or q to exit"))

	return BoxStyle.Render(s.String())
}
