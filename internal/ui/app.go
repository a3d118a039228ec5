package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/danfragoso/termpod/config"
	"github.com/danfragoso/termpod/internal/artwork"
	"github.com/danfragoso/termpod/internal/audio"
	"github.com/danfragoso/termpod/internal/library"
	"github.com/danfragoso/termpod/internal/player"
	"github.com/danfragoso/termpod/internal/watch"
	"github.com/danfragoso/termpod/logger"
)

const messageTimeout = 3 * time.Second

type viewMode int

const (
	ViewSongs viewMode = iota
	ViewArtists
	ViewAlbums
	ViewGenres
	ViewQueue
	ViewSearch
	ViewDirectories
	viewCount
)

func (v viewMode) String() string {
	switch v {
	case ViewSongs:
		return "Songs"
	case ViewArtists:
		return "Artists"
	case ViewAlbums:
		return "Albums"
	case ViewGenres:
		return "Genres"
	case ViewQueue:
		return "Queue"
	case ViewSearch:
		return "Search"
	case ViewDirectories:
		return "Directories"
	default:
		return ""
	}
}

type inputMode int

const (
	modeNormal inputMode = iota
	modeSearch
	modeCommand
)

type engineEventMsg audio.Event

type libraryChangedMsg watch.Change

type clearMessageMsg struct{ id int }

// Options wires optional collaborators into the model.
type Options struct {
	Events     <-chan audio.Event
	Watcher    *watch.Watcher
	Settings   *config.Settings
	VolumeStep float64
	Theme      Theme
	Notice     string // error shown on the first frame
}

// Model is the Bubble Tea model. All controller calls happen on the
// Bubble Tea update goroutine.
type Model struct {
	ctrl *player.Controller
	opts Options

	view   viewMode
	cursor int
	drill  string // selected group inside Artists/Albums/Genres
	mode   inputMode

	searchInput  textinput.Model
	commandInput textinput.Model

	message   string
	isError   bool
	messageID int

	keys   keyMap
	help   help.Model
	styles styles
	art    *artwork.Cache

	width    int
	height   int
	quitting bool
}

func New(ctrl *player.Controller, opts Options) Model {
	if opts.VolumeStep <= 0 {
		opts.VolumeStep = 0.05
	}
	if opts.Theme.Name == "" {
		opts.Theme = ThemeClassic
	}

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "title, artist or album"

	command := textinput.New()
	command.Prompt = ": "
	command.Placeholder = "add <dir> | remove <n> | refresh <n> | load <playlist>"

	m := Model{
		ctrl:         ctrl,
		opts:         opts,
		searchInput:  search,
		commandInput: command,
		keys:         defaultKeyMap(),
		help:         help.New(),
		styles:       newStyles(opts.Theme),
		art:          &artwork.Cache{},
		width:        80,
		height:       24,
	}
	if opts.Notice != "" {
		m.message = "Error: " + opts.Notice
		m.isError = true
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("termpod"),
		waitForEvent(m.opts.Events),
		waitForChange(m.opts.Watcher),
	}
	if m.message != "" {
		cmds = append(cmds, tea.Tick(messageTimeout, func(time.Time) tea.Msg {
			return clearMessageMsg{id: 0}
		}))
	}
	return tea.Batch(cmds...)
}

func waitForEvent(events <-chan audio.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		return engineEventMsg(<-events)
	}
}

func waitForChange(w *watch.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		return libraryChangedMsg(<-w.Changes())
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case engineEventMsg:
		var cmd tea.Cmd
		if err := m.ctrl.HandleEvent(audio.Event(msg)); err != nil {
			cmd = m.setError(err)
		}
		m.followCurrent()
		return m, tea.Batch(cmd, waitForEvent(m.opts.Events))

	case libraryChangedMsg:
		return m, tea.Batch(m.refresh(msg.Dir), waitForChange(m.opts.Watcher))

	case clearMessageMsg:
		if msg.id == m.messageID {
			m.message = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeCommand:
			return m.updateCommand(msg)
		default:
			return m.updateNormal(msg)
		}
	}
	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m.quit()

	case key.Matches(msg, k.Up):
		m.moveCursor(-1)

	case key.Matches(msg, k.Down):
		m.moveCursor(1)

	case key.Matches(msg, k.Play):
		if m.ctrl.Playing() {
			m.ctrl.Stop()
		} else {
			m.ctrl.PlayCurrent()
		}

	case key.Matches(msg, k.Next):
		m.ctrl.Next()
		m.followCurrent()

	case key.Matches(msg, k.Previous):
		m.ctrl.Previous()
		m.followCurrent()

	case key.Matches(msg, k.VolumeUp):
		m.ctrl.SetVolume(m.opts.VolumeStep)

	case key.Matches(msg, k.VolumeDown):
		m.ctrl.SetVolume(-m.opts.VolumeStep)

	case key.Matches(msg, k.Shuffle):
		m.ctrl.Shuffle()
		m.followCurrent()
		return m, m.setMessage("Library shuffled")

	case key.Matches(msg, k.Enqueue):
		r, ok := m.selectedRow()
		if ok && r.kind == rowTrack && m.ctrl.AddToQueue(r.position) {
			return m, m.setMessage("Added to queue")
		}

	case key.Matches(msg, k.Remove):
		return m.removeSelected()

	case key.Matches(msg, k.Select):
		return m.activate()

	case key.Matches(msg, k.Back):
		switch {
		case m.drill != "":
			m.drill = ""
			m.cursor = 0
		case m.view == ViewSearch:
			m.searchInput.Reset()
			m.setView(ViewSongs)
		}

	case key.Matches(msg, k.Search):
		m.setView(ViewSearch)
		m.mode = modeSearch
		return m, m.searchInput.Focus()

	case key.Matches(msg, k.Command):
		m.mode = modeCommand
		m.message = ""
		return m, m.commandInput.Focus()

	case key.Matches(msg, k.NextView):
		m.setView((m.view + 1) % viewCount)

	case key.Matches(msg, k.PrevView):
		m.setView((m.view + viewCount - 1) % viewCount)

	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m.quit()
	case tea.KeyEsc, tea.KeyEnter:
		m.mode = modeNormal
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.cursor = 0
	return m, cmd
}

func (m Model) updateCommand(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m.quit()
	case tea.KeyEsc:
		m.mode = modeNormal
		m.commandInput.Blur()
		m.commandInput.Reset()
		return m, nil
	case tea.KeyEnter:
		line := strings.TrimSpace(m.commandInput.Value())
		m.mode = modeNormal
		m.commandInput.Blur()
		m.commandInput.Reset()
		return m, m.runCommand(line)
	}

	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	return m, cmd
}

// runCommand executes a ":" command line.
func (m *Model) runCommand(line string) tea.Cmd {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "":
		return nil

	case "add":
		if arg == "" {
			return m.setError(errors.New("usage: add <directory>"))
		}
		if err := m.ctrl.AddDirectory(config.ExpandHome(arg)); err != nil {
			return m.setError(err)
		}
		m.syncWatcher()
		return m.setMessage("Directory added")

	case "remove":
		i, err := strconv.Atoi(arg)
		if err != nil {
			return m.setError(errors.New("usage: remove <n>"))
		}
		if err := m.ctrl.RemoveDirectory(i); err != nil {
			return m.setError(err)
		}
		m.syncWatcher()
		m.clampCursor()
		return m.setMessage("Directory removed")

	case "refresh":
		i, err := strconv.Atoi(arg)
		if err != nil {
			return m.setError(errors.New("usage: refresh <n>"))
		}
		if err := m.ctrl.RefreshDirectory(i); err != nil {
			return m.setError(err)
		}
		m.clampCursor()
		return m.setMessage("Directory refreshed")

	case "load":
		if arg == "" {
			return m.setError(errors.New("usage: load <playlist>"))
		}
		n, err := m.ctrl.EnqueuePlaylist(config.ExpandHome(arg))
		if err != nil {
			return m.setError(err)
		}
		return m.setMessage(fmt.Sprintf("Queued %d tracks", n))

	case "clear":
		m.ctrl.ClearQueue()
		return m.setMessage("Queue cleared")

	default:
		return m.setError(fmt.Errorf("unknown command %q", name))
	}
}

// activate handles the select key on the row under the cursor.
func (m Model) activate() (tea.Model, tea.Cmd) {
	r, ok := m.selectedRow()
	if !ok {
		return m, nil
	}

	switch r.kind {
	case rowGroup:
		m.drill = r.group
		m.cursor = 0
	case rowTrack:
		if err := m.ctrl.Select(r.position); err != nil {
			return m, m.setError(err)
		}
	}
	return m, nil
}

func (m Model) removeSelected() (tea.Model, tea.Cmd) {
	r, ok := m.selectedRow()
	if !ok {
		return m, nil
	}

	switch m.view {
	case ViewQueue:
		if err := m.ctrl.RemoveFromQueue(r.index); err != nil {
			return m, m.setError(err)
		}
		m.clampCursor()
		return m, m.setMessage("Removed from queue")
	case ViewDirectories:
		if err := m.ctrl.RemoveDirectory(r.index); err != nil {
			return m, m.setError(err)
		}
		m.syncWatcher()
		m.clampCursor()
		return m, m.setMessage("Directory removed")
	}
	return m, nil
}

// refresh rescans the source directory dir after a watcher report.
func (m *Model) refresh(dir string) tea.Cmd {
	for i, d := range m.ctrl.Library().Dirs() {
		if d != dir {
			continue
		}
		if err := m.ctrl.RefreshDirectory(i); err != nil {
			logger.Warn("Failed to refresh directory",
				logger.String("dir", dir),
				logger.ErrorField(err))
			return m.setError(err)
		}
		m.syncWatcher()
		m.clampCursor()
		return nil
	}
	return nil
}

func (m *Model) syncWatcher() {
	if m.opts.Watcher == nil {
		return
	}
	if err := m.opts.Watcher.SetRoots(m.ctrl.Library().Dirs()); err != nil {
		logger.Warn("Failed to update watched directories", logger.ErrorField(err))
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true

	if s := m.opts.Settings; s != nil {
		s.SetVolume(m.ctrl.Volume())
		if err := s.Save(); err != nil {
			logger.Warn("Failed to save settings", logger.ErrorField(err))
		}
	}
	m.ctrl.Shutdown()
	return m, tea.Quit
}

func (m *Model) setView(v viewMode) {
	m.view = v
	m.cursor = 0
	m.drill = ""
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	n := len(m.rows())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// followCurrent keeps the song list cursor on the current track.
func (m *Model) followCurrent() {
	if m.view == ViewSongs && m.ctrl.CurrentIndex() >= 0 {
		m.cursor = m.ctrl.CurrentIndex()
	}
}

func (m Model) selectedRow() (row, bool) {
	rows := m.rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return row{}, false
	}
	return rows[m.cursor], true
}

func (m *Model) setMessage(text string) tea.Cmd {
	m.message = text
	m.isError = false
	return m.expireMessage()
}

func (m *Model) setError(err error) tea.Cmd {
	m.message = "Error: " + err.Error()
	m.isError = true
	return m.expireMessage()
}

func (m *Model) expireMessage() tea.Cmd {
	m.messageID++
	id := m.messageID
	return tea.Tick(messageTimeout, func(time.Time) tea.Msg {
		return clearMessageMsg{id: id}
	})
}

type rowKind int

const (
	rowTrack rowKind = iota
	rowGroup
	rowDir
)

// row is one line of the active list.
type row struct {
	kind     rowKind
	label    string
	detail   string
	position int    // library position for track rows
	group    string // group value for group rows
	index    int    // queue or directory index
}

func trackRow(m library.Match) row {
	return row{
		kind:     rowTrack,
		label:    m.Track.Title,
		detail:   m.Track.Artist,
		position: m.Position,
	}
}

func matchRows(matches []library.Match) []row {
	rows := make([]row, 0, len(matches))
	for _, m := range matches {
		rows = append(rows, trackRow(m))
	}
	return rows
}

func groupRows(groups []library.Group) []row {
	rows := make([]row, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, row{kind: rowGroup, label: g.Name, detail: g.Artist, group: g.Name})
	}
	return rows
}

// rows computes the active list from the current library state.
func (m Model) rows() []row {
	lib := m.ctrl.Library()
	tracks := lib.Tracks()

	switch m.view {
	case ViewSongs:
		rows := make([]row, 0, len(tracks))
		for i, t := range tracks {
			rows = append(rows, trackRow(library.Match{Position: i, Track: t}))
		}
		return rows

	case ViewArtists:
		if m.drill == "" {
			return groupRows(library.GroupBy(tracks, library.FieldArtist))
		}
		return matchRows(library.TracksByArtist(tracks, m.drill))

	case ViewAlbums:
		if m.drill == "" {
			return groupRows(library.GroupBy(tracks, library.FieldAlbum))
		}
		return matchRows(library.TracksByAlbum(tracks, m.drill))

	case ViewGenres:
		if m.drill == "" {
			return groupRows(library.GroupBy(tracks, library.FieldGenre))
		}
		return matchRows(library.TracksByGenre(tracks, m.drill))

	case ViewQueue:
		queued := m.ctrl.Snapshot().Queue
		rows := make([]row, 0, len(queued))
		for i, t := range queued {
			r := trackRow(library.Match{Position: lib.Position(t.Path), Track: t})
			r.index = i
			rows = append(rows, r)
		}
		return rows

	case ViewSearch:
		return matchRows(library.Search(tracks, m.searchInput.Value()))

	case ViewDirectories:
		dirs := lib.Dirs()
		rows := make([]row, 0, len(dirs))
		for i, d := range dirs {
			rows = append(rows, row{kind: rowDir, label: d, detail: strconv.Itoa(i), index: i})
		}
		return rows
	}
	return nil
}
