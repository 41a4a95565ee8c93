package tui

import (
	"fmt"
	"strings"

	"termvis/internal/audio"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)
)

// SampleRates offered on the configuration screen.
var SampleRates = []float64{44100, 48000, 88200, 96000}

type keyMap struct {
	Up, Down, Select, Back, Quit key.Binding
}

var keys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Select: key.NewBinding(key.WithKeys("enter")),
	Back:   key.NewBinding(key.WithKeys("esc")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	ConfigScreen
)

// Selection is the device and sample rate chosen in the picker.
type Selection struct {
	DeviceID   int
	SampleRate float64
}

// PickerModel lists stereo-capable input devices and lets the user choose one
// and a sample rate.
type PickerModel struct {
	devices       []audio.Device
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	err           error
	activeScreen  ScreenType

	sampleRateIndex int
	selection       *Selection
}

type devicesMsg struct {
	devices []audio.Device
}

type errMsg struct {
	err error
}

// fetchDevices gets the available audio devices
func fetchDevices() tea.Msg {
	devices, err := audio.GetDevices()
	if err != nil {
		return errMsg{err}
	}
	return devicesMsg{devices}
}

// NewPickerModel creates a picker. With nil devices, the model queries
// PortAudio on Init.
func NewPickerModel(devices []audio.Device) PickerModel {
	return PickerModel{
		devices:      stereoInputs(devices),
		activeScreen: ListScreen,
	}
}

func (m PickerModel) Init() tea.Cmd {
	if m.devices == nil {
		return fetchDevices
	}
	return nil
}

// Selection returns the confirmed choice, if any.
func (m PickerModel) Selection() (Selection, bool) {
	if m.selection == nil {
		return Selection{}, false
	}
	return *m.selection, true
}

// Err returns the device query error, if any.
func (m PickerModel) Err() error { return m.err }

func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()

	case devicesMsg:
		m.devices = stereoInputs(msg.devices)
		m.refresh()

	case errMsg:
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		switch m.activeScreen {
		case ListScreen:
			if quit := m.updateList(msg); quit {
				return m, tea.Quit
			}
		case ConfigScreen:
			if done := m.updateConfig(msg); done {
				return m, tea.Quit
			}
		}
		m.refresh()
		// The viewport must not also scroll on the navigation keys.
		return m, nil
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *PickerModel) updateList(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, keys.Back):
		return true
	case key.Matches(msg, keys.Up):
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
	case key.Matches(msg, keys.Down):
		if m.selectedIndex < len(m.devices)-1 {
			m.selectedIndex++
		}
	case key.Matches(msg, keys.Select):
		if len(m.devices) == 0 {
			return false
		}
		m.activeScreen = ConfigScreen
		m.sampleRateIndex = 0
		for i, rate := range SampleRates {
			if rate == m.devices[m.selectedIndex].DefaultSampleRate {
				m.sampleRateIndex = i
				break
			}
		}
	}
	return false
}

func (m *PickerModel) updateConfig(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, keys.Back):
		m.activeScreen = ListScreen
	case key.Matches(msg, keys.Up):
		if m.sampleRateIndex > 0 {
			m.sampleRateIndex--
		}
	case key.Matches(msg, keys.Down):
		if m.sampleRateIndex < len(SampleRates)-1 {
			m.sampleRateIndex++
		}
	case key.Matches(msg, keys.Select):
		m.selection = &Selection{
			DeviceID:   m.devices[m.selectedIndex].ID,
			SampleRate: SampleRates[m.sampleRateIndex],
		}
		return true
	}
	return false
}

func (m *PickerModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == ConfigScreen {
		m.viewport.SetContent(m.renderDeviceConfig())
	} else {
		m.viewport.SetContent(m.renderDevices())
	}
}

// View renders the UI
func (m PickerModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}
	if !m.ready {
		return "Initializing..."
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Input Devices")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Configure • q: Quit")
	} else {
		title = titleStyle.Render("Device Configuration")
		help = infoStyle.Render("↑/↓: Sample Rate • Enter: Start • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m PickerModel) renderDevices() string {
	if len(m.devices) == 0 {
		return "No stereo input devices found."
	}

	var sb strings.Builder
	for i, device := range m.devices {
		info := fmt.Sprintf("[%d] %s (%s)\n", device.ID, device.Name, device.Type())
		info += fmt.Sprintf("    Input channels: %d, Default sample rate: %.0f Hz\n",
			device.MaxInputChannels, device.DefaultSampleRate)
		if i == m.selectedIndex {
			info = highlightStyle.Render(info)
		}
		sb.WriteString(info)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m PickerModel) renderDeviceConfig() string {
	var sb strings.Builder
	device := m.devices[m.selectedIndex]

	fmt.Fprintf(&sb, "Configure Device: %s\n\n", device.Name)
	sb.WriteString("Sample Rate:\n")

	for i, rate := range SampleRates {
		marker := " "
		if i == m.sampleRateIndex {
			marker = "▶"
		}
		line := fmt.Sprintf("  %s %.0f Hz\n", marker, rate)
		if i == m.sampleRateIndex {
			line = highlightStyle.Render(line)
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// stereoInputs keeps devices that can capture two channels. A nil input
// stays nil so Init knows to fetch.
func stereoInputs(devices []audio.Device) []audio.Device {
	if devices == nil {
		return nil
	}
	out := make([]audio.Device, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels >= 2 {
			out = append(out, d)
		}
	}
	return out
}

// Pick runs the device picker full screen and returns the confirmed choice.
// ok is false when the user quit without choosing.
func Pick() (sel Selection, ok bool, err error) {
	p := tea.NewProgram(NewPickerModel(nil), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return Selection{}, false, err
	}
	m := final.(PickerModel)
	if m.Err() != nil {
		return Selection{}, false, m.Err()
	}
	sel, ok = m.Selection()
	return sel, ok, nil
}
