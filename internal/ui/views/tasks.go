package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskr/internal/api"
	"github.com/tgienger/taskr/internal/comments"
	"github.com/tgienger/taskr/internal/mentions"
	"github.com/tgienger/taskr/internal/models"
	"github.com/tgienger/taskr/internal/render"
	"github.com/tgienger/taskr/internal/tasks"
	"github.com/tgienger/taskr/internal/ui/keys"
	"github.com/tgienger/taskr/internal/ui/styles"
)

// Create form fields, in focus order
const (
	fieldTitle = iota
	fieldDesc
	fieldCategory
	fieldStatus
	fieldPriority
	fieldSave
	fieldCount
)

// TaskListView shows the working set with its filters and the comment
// panels of each task
type TaskListView struct {
	deps   Deps
	styles *styles.Styles
	keys   keys.KeyMap
	md     markdown

	width  int
	height int

	// UI state
	cursor  int
	scrollY int // first visible line of the list
	loading bool

	// Task creation
	creating    bool
	newTitle    textinput.Model
	newDesc     textarea.Model
	newCategory textinput.Model
	newStatus   models.Status
	newPriority models.Priority
	createFocus int
	createErr   string
	submitting  bool

	// Delete confirmation
	confirmingDelete bool
	deleteTargetID   string
	deleteTargetName string

	// Comment composer, shared by new comments and edits
	composing               bool
	editingComment          bool
	composer                textarea.Model
	suggester               *mentions.Suggester
	suggestions             []string
	commentCursor           int
	confirmingDeleteComment bool

	// Help popup
	showHelpPopup bool
}

// NewTaskListView creates the task list view
func NewTaskListView(deps Deps) *TaskListView {
	s := styles.NewStyles()

	newTitle := textinput.New()
	newTitle.Placeholder = "Task title"
	newTitle.CharLimit = 200

	newDesc := textarea.New()
	newDesc.Placeholder = "Description (markdown, optional)"
	newDesc.CharLimit = 2000
	newDesc.SetWidth(50)
	newDesc.SetHeight(4)
	newDesc.ShowLineNumbers = false

	newCategory := textinput.New()
	newCategory.Placeholder = models.DefaultCategory
	newCategory.CharLimit = 50

	composer := textarea.New()
	composer.Placeholder = "Write a comment, @name to mention someone"
	composer.CharLimit = 2000
	composer.SetWidth(50)
	composer.SetHeight(3)
	composer.ShowLineNumbers = false

	return &TaskListView{
		deps:        deps,
		styles:      s,
		keys:        keys.DefaultKeyMap(),
		newTitle:    newTitle,
		newDesc:     newDesc,
		newCategory: newCategory,
		newStatus:   models.StatusTodo,
		newPriority: models.PriorityMedium,
		composer:    composer,
	}
}

// Init loads the working set unless it is already present
func (v *TaskListView) Init() tea.Cmd {
	if v.deps.Tasks.Loaded() {
		return nil
	}
	return v.Reload()
}

// Reload fetches the working set
func (v *TaskListView) Reload() tea.Cmd {
	v.loading = true
	return v.runTasks("", func(st *tasks.State, ctx context.Context) error {
		return st.Load(ctx)
	})
}

// Capturing reports whether keystrokes belong to a form or dialog
func (v *TaskListView) Capturing() bool {
	return v.creating || v.composing || v.confirmingDelete ||
		v.confirmingDeleteComment || v.showHelpPopup
}

// Restyle rebuilds styles after a theme change
func (v *TaskListView) Restyle() {
	v.styles = styles.NewStyles()
}

func (v *TaskListView) visible() []models.Task {
	return v.deps.Tasks.Visible()
}

func (v *TaskListView) selected() (models.Task, bool) {
	ts := v.visible()
	if v.cursor < 0 || v.cursor >= len(ts) {
		return models.Task{}, false
	}
	return ts[v.cursor], true
}

func (v *TaskListView) indexOf(id string) int {
	for i, t := range v.visible() {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// selectedComment returns the highlighted comment of the selected task's panel
func (v *TaskListView) selectedComment() (string, models.Comment, bool) {
	t, ok := v.selected()
	if !ok || !v.deps.Threads.IsOpen(t.ID) {
		return "", models.Comment{}, false
	}
	p := v.deps.Threads.Panel(t.ID)
	if v.commentCursor < 0 || v.commentCursor >= len(p.Comments) {
		return t.ID, models.Comment{}, false
	}
	return t.ID, p.Comments[v.commentCursor], true
}

// Update handles messages
func (v *TaskListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(v.width)
		inputWidth := clamp(contentWidth-10, 20, 60)
		v.newDesc.SetWidth(inputWidth)
		v.composer.SetWidth(inputWidth)
		return v, nil

	case TasksLoadedMsg:
		v.loading = false
		v.clampCursor()
		if msg.create {
			v.settleCreate(msg.Err)
		}
		if msg.Err != nil {
			return v, reportErr(msg.Err)
		}
		if msg.Status != "" {
			status := StatusMsg(msg.Status)
			return v, func() tea.Msg { return status }
		}
		return v, nil

	case CommentsLoadedMsg:
		p := v.deps.Threads.Panel(msg.TaskID)
		if v.commentCursor >= len(p.Comments) {
			v.commentCursor = max(0, len(p.Comments)-1)
		}
		if msg.Err != nil {
			return v, reportErr(msg.Err)
		}
		if p.State == comments.Opening {
			id := msg.TaskID
			return v, tea.Tick(panelAnimation, func(time.Time) tea.Msg {
				return CommentsSettledMsg{TaskID: id}
			})
		}
		return v, nil

	case CommentsSettledMsg:
		v.deps.Threads.Settle(msg.TaskID)
		return v, nil

	case UsersLoadedMsg:
		if msg.err != nil {
			v.deps.Log.Warn().Err(msg.err).Msg("load users for mention completion")
			return v, nil
		}
		v.suggester = mentions.NewSuggester(msg.users)
		v.refreshSuggestions()
		return v, nil

	case FocusTaskMsg:
		return v, v.focusTask(msg.TaskID)

	case tea.KeyMsg:
		// Any key closes the help popup
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.confirmingDeleteComment {
			return v.updateConfirmDeleteComment(msg)
		}

		if v.creating {
			return v.updateCreating(msg)
		}

		if v.composing {
			return v.updateComposing(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TaskListView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.commentCursor = 0
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.visible())-1 {
			v.cursor++
			v.commentCursor = 0
		}
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		t, ok := v.selected()
		if !ok {
			return v, nil
		}
		v.commentCursor = 0
		if v.deps.Threads.Toggle(t.ID) {
			return v, v.loadComments(t.ID)
		}
		return v, nil

	case key.Matches(msg, v.keys.Reload):
		return v, v.Reload()

	case key.Matches(msg, v.keys.New):
		v.openCreateForm()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Delete):
		t, ok := v.selected()
		if !ok {
			return v, nil
		}
		if !tasks.CanDelete(t, v.deps.Viewer) {
			return v, func() tea.Msg { return StatusMsg("Only the owner or an admin can delete this task") }
		}
		v.confirmingDelete = true
		v.deleteTargetID = t.ID
		v.deleteTargetName = t.Title
		return v, nil

	case key.Matches(msg, v.keys.CycleStatus):
		t, ok := v.selected()
		if !ok {
			return v, nil
		}
		next := t.Status.Next()
		return v, v.updateTask(t.ID, tasks.Patch{Status: &next}, fmt.Sprintf("Status set to %s", next))

	case key.Matches(msg, v.keys.CyclePriority):
		t, ok := v.selected()
		if !ok {
			return v, nil
		}
		next := t.Priority.Next()
		return v, v.updateTask(t.ID, tasks.Patch{Priority: &next}, fmt.Sprintf("Priority set to %s", next))

	case key.Matches(msg, v.keys.FilterStatus):
		f := v.deps.Tasks.Filter()
		f.Status = tasks.NextStatus(f.Status)
		v.setFilter(f)
		return v, nil

	case key.Matches(msg, v.keys.FilterPriority):
		f := v.deps.Tasks.Filter()
		f.Priority = tasks.NextPriority(f.Priority)
		v.setFilter(f)
		return v, nil

	case key.Matches(msg, v.keys.FilterCategory):
		f := v.deps.Tasks.Filter()
		f.Category = tasks.NextCategory(f.Category, v.deps.Tasks.Categories())
		v.setFilter(f)
		return v, nil

	case key.Matches(msg, v.keys.ClearFilter):
		v.deps.Tasks.ClearFilter()
		v.cursor, v.scrollY = 0, 0
		return v, nil

	case key.Matches(msg, v.keys.Comment):
		t, ok := v.selected()
		if !ok {
			return v, nil
		}
		var cmds []tea.Cmd
		if !v.deps.Threads.IsOpen(t.ID) {
			v.deps.Threads.Toggle(t.ID)
			cmds = append(cmds, v.loadComments(t.ID))
		}
		cmds = append(cmds, v.openComposer(""))
		return v, tea.Batch(cmds...)

	case key.Matches(msg, v.keys.CommentUp):
		if v.commentCursor > 0 {
			v.commentCursor--
		}
		return v, nil

	case key.Matches(msg, v.keys.CommentDown):
		if t, ok := v.selected(); ok && v.deps.Threads.IsOpen(t.ID) {
			if v.commentCursor < len(v.deps.Threads.Panel(t.ID).Comments)-1 {
				v.commentCursor++
			}
		}
		return v, nil

	case key.Matches(msg, v.keys.EditComment):
		taskID, c, ok := v.selectedComment()
		if !ok {
			return v, nil
		}
		if !comments.CanModify(c, v.deps.Viewer) {
			return v, func() tea.Msg { return StatusMsg("Only the author or an admin can edit this comment") }
		}
		text, err := v.deps.Threads.StartEdit(taskID, c.ID)
		if err != nil {
			return v, reportErr(err)
		}
		v.editingComment = true
		return v, v.openComposer(text)

	case key.Matches(msg, v.keys.DeleteComment):
		taskID, c, ok := v.selectedComment()
		if !ok {
			return v, nil
		}
		if !comments.CanModify(c, v.deps.Viewer) {
			return v, func() tea.Msg { return StatusMsg("Only the author or an admin can delete this comment") }
		}
		if err := v.deps.Threads.RequestDelete(taskID, c.ID); err != nil {
			return v, reportErr(err)
		}
		v.confirmingDeleteComment = true
		return v, nil
	}

	return v, nil
}

func (v *TaskListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Confirm):
		id, name := v.deleteTargetID, v.deleteTargetName
		v.confirmingDelete = false
		v.deleteTargetID, v.deleteTargetName = "", ""
		return v, v.runTasks(fmt.Sprintf("Deleted %q", name), func(st *tasks.State, ctx context.Context) error {
			return st.Delete(ctx, id)
		})

	case key.Matches(msg, v.keys.Deny):
		v.confirmingDelete = false
		v.deleteTargetID, v.deleteTargetName = "", ""
		return v, nil
	}
	return v, nil
}

func (v *TaskListView) updateConfirmDeleteComment(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t, ok := v.selected()
	if !ok {
		v.confirmingDeleteComment = false
		return v, nil
	}
	switch {
	case key.Matches(msg, v.keys.Confirm):
		v.confirmingDeleteComment = false
		return v, v.runComments(t.ID, func(ctx context.Context) error {
			return v.deps.Threads.ConfirmDelete(ctx, t.ID)
		})

	case key.Matches(msg, v.keys.Deny):
		v.confirmingDeleteComment = false
		v.deps.Threads.AbortDelete(t.ID)
		return v, nil
	}
	return v, nil
}

// openCreateForm shows the form with whatever draft is left from a failed create
func (v *TaskListView) openCreateForm() {
	v.creating = true
	v.createFocus = fieldTitle
	v.createErr = ""
	v.focusCreateField()
}

func (v *TaskListView) resetCreateForm() {
	v.newTitle.SetValue("")
	v.newDesc.SetValue("")
	v.newCategory.SetValue("")
	v.newStatus = models.StatusTodo
	v.newPriority = models.PriorityMedium
}

// settleCreate clears the draft once the task exists. A rejected create
// reopens the form with the draft and the error.
func (v *TaskListView) settleCreate(err error) {
	v.submitting = false
	if err == nil || !errors.Is(err, tasks.ErrNotCreated) {
		v.resetCreateForm()
		return
	}
	v.openCreateForm()
	v.createErr = err.Error()
}

func (v *TaskListView) focusCreateField() {
	v.newTitle.Blur()
	v.newDesc.Blur()
	v.newCategory.Blur()
	switch v.createFocus {
	case fieldTitle:
		v.newTitle.Focus()
	case fieldDesc:
		v.newDesc.Focus()
	case fieldCategory:
		v.newCategory.Focus()
	}
}

func (v *TaskListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		v.resetCreateForm()
		v.newTitle.Blur()
		v.newDesc.Blur()
		v.newCategory.Blur()
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.submitCreate()

	case key.Matches(msg, v.keys.Tab):
		v.createFocus = (v.createFocus + 1) % fieldCount
		v.focusCreateField()
		return v, nil

	case msg.String() == "shift+tab":
		v.createFocus = (v.createFocus + fieldCount - 1) % fieldCount
		v.focusCreateField()
		return v, nil
	}

	switch v.createFocus {
	case fieldTitle:
		if key.Matches(msg, v.keys.Enter) {
			return v, v.submitCreate()
		}
		var cmd tea.Cmd
		v.newTitle, cmd = v.newTitle.Update(msg)
		return v, cmd
	case fieldDesc:
		var cmd tea.Cmd
		v.newDesc, cmd = v.newDesc.Update(msg)
		return v, cmd
	case fieldCategory:
		if key.Matches(msg, v.keys.Enter) {
			return v, v.submitCreate()
		}
		var cmd tea.Cmd
		v.newCategory, cmd = v.newCategory.Update(msg)
		return v, cmd
	case fieldStatus:
		if key.Matches(msg, v.keys.Enter) || msg.String() == " " {
			v.newStatus = v.newStatus.Next()
		}
	case fieldPriority:
		if key.Matches(msg, v.keys.Enter) || msg.String() == " " {
			v.newPriority = v.newPriority.Next()
		}
	case fieldSave:
		if key.Matches(msg, v.keys.Enter) {
			return v, v.submitCreate()
		}
	}
	return v, nil
}

// submitCreate validates the title locally and only then posts the task
func (v *TaskListView) submitCreate() tea.Cmd {
	if v.submitting {
		return nil
	}
	title, err := tasks.ValidateTitle(v.newTitle.Value())
	if err != nil {
		v.createErr = err.Error()
		return nil
	}
	task := api.NewTask{
		Title:       title,
		Description: strings.TrimSpace(v.newDesc.Value()),
		Category:    strings.TrimSpace(v.newCategory.Value()),
		Status:      v.newStatus,
		Priority:    v.newPriority,
	}
	v.creating = false
	v.submitting = true
	v.createErr = ""
	v.newTitle.Blur()
	v.newDesc.Blur()
	v.newCategory.Blur()
	create := v.runTasks("Task created", func(st *tasks.State, ctx context.Context) error {
		return st.Create(ctx, task)
	})
	return func() tea.Msg {
		msg, _ := create().(TasksLoadedMsg)
		msg.create = true
		return msg
	}
}

func (v *TaskListView) openComposer(text string) tea.Cmd {
	v.composing = true
	v.composer.SetValue(text)
	v.composer.Focus()
	v.refreshSuggestions()

	cmds := []tea.Cmd{textarea.Blink}
	if v.suggester == nil && v.deps.Users != nil {
		cmds = append(cmds, v.loadUsers())
	}
	return tea.Batch(cmds...)
}

func (v *TaskListView) closeComposer() {
	v.composing = false
	v.editingComment = false
	v.suggestions = nil
	v.composer.Reset()
	v.composer.Blur()
}

func (v *TaskListView) refreshSuggestions() {
	if v.suggester == nil {
		v.suggestions = nil
		return
	}
	v.suggestions = v.suggester.Suggest(v.composer.Value(), 5)
}

func (v *TaskListView) updateComposing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t, ok := v.selected()
	if !ok {
		v.closeComposer()
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Back):
		editing := v.editingComment
		v.closeComposer()
		if editing {
			return v, v.runComments(t.ID, func(ctx context.Context) error {
				return v.deps.Threads.CancelEdit(ctx, t.ID)
			})
		}
		return v, nil

	case key.Matches(msg, v.keys.Save):
		text := v.composer.Value()
		if strings.TrimSpace(text) == "" {
			return v, func() tea.Msg { return StatusMsg("Comment cannot be empty") }
		}
		editing := v.editingComment
		v.closeComposer()
		if editing {
			return v, v.runComments(t.ID, func(ctx context.Context) error {
				return v.deps.Threads.SaveEdit(ctx, t.ID, text)
			})
		}
		v.commentCursor = 0
		return v, v.runComments(t.ID, func(ctx context.Context) error {
			return v.deps.Threads.Add(ctx, t.ID, text)
		})

	case key.Matches(msg, v.keys.Tab):
		if v.suggester != nil {
			if completed, ok := v.suggester.Complete(v.composer.Value()); ok {
				v.composer.SetValue(completed)
				v.refreshSuggestions()
			}
		}
		return v, nil
	}

	var cmd tea.Cmd
	v.composer, cmd = v.composer.Update(msg)
	v.refreshSuggestions()
	return v, cmd
}

func (v *TaskListView) setFilter(f tasks.Filter) {
	v.deps.Tasks.SetFilter(f)
	v.cursor, v.scrollY = 0, 0
	v.commentCursor = 0
}

func (v *TaskListView) clampCursor() {
	n := len(v.visible())
	if v.cursor >= n {
		v.cursor = max(0, n-1)
	}
}

// focusTask moves the cursor to a task and makes sure its comments are open.
// A task hidden by the filter clears the filter first.
func (v *TaskListView) focusTask(id string) tea.Cmd {
	idx := v.indexOf(id)
	if idx < 0 {
		if _, ok := v.deps.Tasks.Find(id); !ok {
			return func() tea.Msg { return StatusMsg("That task is no longer available") }
		}
		v.deps.Tasks.ClearFilter()
		idx = v.indexOf(id)
	}
	if idx < 0 {
		return nil
	}
	v.cursor = idx
	v.commentCursor = 0
	if !v.deps.Threads.IsOpen(id) {
		v.deps.Threads.Toggle(id)
		return v.loadComments(id)
	}
	return nil
}

func (v *TaskListView) updateTask(id string, p tasks.Patch, status string) tea.Cmd {
	return v.runTasks(status, func(st *tasks.State, ctx context.Context) error {
		return st.Update(ctx, id, p)
	})
}

func (v *TaskListView) loadComments(id string) tea.Cmd {
	return v.runComments(id, func(ctx context.Context) error {
		return v.deps.Threads.Load(ctx, id)
	})
}

func (v *TaskListView) loadUsers() tea.Cmd {
	users := v.deps.Users
	deps := v.deps
	return func() tea.Msg {
		ctx, cancel := deps.Context()
		defer cancel()
		list, err := users.ListUsers(ctx)
		return UsersLoadedMsg{users: list, err: err}
	}
}

func (v *TaskListView) runTasks(status string, fn func(*tasks.State, context.Context) error) tea.Cmd {
	deps := v.deps
	return func() tea.Msg {
		ctx, cancel := deps.Context()
		defer cancel()
		err := fn(deps.Tasks, ctx)
		if err != nil {
			deps.Log.Error().Err(err).Msg("task operation failed")
			status = ""
		}
		return TasksLoadedMsg{Err: err, Status: status}
	}
}

func (v *TaskListView) runComments(taskID string, fn func(context.Context) error) tea.Cmd {
	deps := v.deps
	return func() tea.Msg {
		ctx, cancel := deps.Context()
		defer cancel()
		err := fn(ctx)
		if err != nil && !errors.Is(err, comments.ErrEmptyComment) {
			deps.Log.Error().Err(err).Str("task", taskID).Msg("comment operation failed")
		}
		return CommentsLoadedMsg{TaskID: taskID, Err: err}
	}
}

// View renders the view
func (v *TaskListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.creating {
		return v.renderCreateForm()
	}

	var b strings.Builder
	b.WriteString(v.renderFilterBar())
	b.WriteString("\n\n")
	b.WriteString(v.renderTaskList())
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TaskListView) renderFilterBar() string {
	s := v.styles
	f := v.deps.Tasks.Filter()

	label := func(name, value string) string {
		if value == "" {
			return s.FilterButton.Render(name + ": All ▼")
		}
		return s.FilterInput.Render(name + ": " + value + " ▼")
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center,
		label("Status", string(f.Status)), " ",
		label("Priority", string(f.Priority)), " ",
		label("Category", f.Category),
	)

	total := len(v.deps.Tasks.Tasks())
	count := fmt.Sprintf("%d tasks", total)
	if !f.IsZero() {
		count = fmt.Sprintf("Showing %d of %d tasks", len(v.visible()), total)
	}
	return lipgloss.JoinVertical(lipgloss.Left, bar, s.TitleMuted.Render(count))
}

func (v *TaskListView) renderTaskList() string {
	s := v.styles

	if v.loading && !v.deps.Tasks.Loaded() {
		return s.TitleMuted.Render("Loading tasks...")
	}

	rows := render.TaskRows(v.visible(), v.deps.Viewer)
	if len(rows) == 0 {
		if !v.deps.Tasks.Filter().IsZero() {
			return s.TitleMuted.Render("No tasks match the filters. Press 'x' to clear them.")
		}
		return s.TitleMuted.Render("No tasks. Press 'n' to create one.")
	}

	var lines []string
	var cursorTop, cursorBottom int
	for i, row := range rows {
		block := v.renderTaskItem(row, i == v.cursor)
		if i == v.cursor {
			cursorTop = len(lines)
		}
		lines = append(lines, strings.Split(block, "\n")...)
		if i == v.cursor {
			cursorBottom = len(lines)
		}
		lines = append(lines, "")
	}

	// Filter bar and help take about eight lines
	available := max(v.height-8, 3)
	v.ensureVisible(cursorTop, cursorBottom, available)

	end := min(v.scrollY+available, len(lines))
	visible := lines[v.scrollY:end]

	var b strings.Builder
	b.WriteString(strings.Join(visible, "\n"))
	if v.scrollY > 0 || end < len(lines) {
		b.WriteString("\n")
		b.WriteString(s.TitleMuted.Render(fmt.Sprintf("  %d/%d", v.cursor+1, len(rows))))
	}
	return b.String()
}

// ensureVisible scrolls so the selected block is on screen, preferring its top
func (v *TaskListView) ensureVisible(top, bottom, available int) {
	if bottom-v.scrollY > available {
		v.scrollY = bottom - available
	}
	if top < v.scrollY || bottom-top > available {
		v.scrollY = top
	}
	v.scrollY = max(v.scrollY, 0)
}

func (v *TaskListView) renderTaskItem(row render.TaskRow, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	titleStyle := s.TaskTitle
	if row.Mine {
		titleStyle = s.Mine
	}
	marker := "  "
	if selected {
		marker = s.HelpKey.Render("▸ ")
		titleStyle = titleStyle.Bold(true)
	}

	title := marker + titleStyle.Render(row.Title) + "  " +
		styles.Status(models.Status(row.Status)).Render("["+row.Status+"]") + " " +
		styles.Priority(models.Priority(row.Priority)).Render(row.Priority)

	owner := row.Owner
	if row.Yours {
		owner += " (You)"
	}
	meta := fmt.Sprintf("%s • %s • %s • %d comments", row.Category, owner, row.Updated, row.CommentCount)
	parts := []string{title, "  " + s.TitleMuted.Render(meta)}
	if row.SharedWith != "" {
		parts = append(parts, "  "+s.TitleMuted.Render("Shared with: "+row.SharedWith))
	}

	if v.deps.Threads.IsOpen(row.ID) {
		parts = append(parts, v.renderPanel(row, selected, width))
	}

	item := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if selected {
		return s.ListSelected.Padding(0).Width(width).Render(item)
	}
	return item
}

// renderPanel draws the description and the comment thread under a task
func (v *TaskListView) renderPanel(row render.TaskRow, selected bool, width int) string {
	s := v.styles
	p := v.deps.Threads.Panel(row.ID)
	inner := max(width-6, 20)

	var parts []string
	if strings.TrimSpace(row.Description) != "" {
		if v.deps.Markdown {
			parts = append(parts, v.md.render(row.Description, inner))
		} else {
			parts = append(parts, lipgloss.NewStyle().Width(inner).Render(row.Description))
		}
		parts = append(parts, "")
	}

	header := fmt.Sprintf("Comments (%d)", len(p.Comments))
	if p.State == comments.Opening {
		header += " " + s.TitleMuted.Render("loading...")
	}
	parts = append(parts, s.Title.Render(header))

	if len(p.Comments) == 0 && p.State == comments.Open {
		parts = append(parts, s.TitleMuted.Render("No comments yet. Press 'c' to add one."))
	}

	for i, c := range p.Comments {
		author := s.CommentAuthor.Render(c.UserName)
		if c.UserID == v.deps.Viewer.Sub {
			author += s.TitleMuted.Render(" (You)")
		}
		body := lipgloss.JoinVertical(lipgloss.Left,
			author+"  "+s.TitleMuted.Render(c.CreatedAt.LocalString()),
			lipgloss.NewStyle().Width(inner).Render(highlightMentions(s, c.Text)),
		)
		if c.ID == p.PendingDelete {
			body = lipgloss.JoinVertical(lipgloss.Left, body,
				s.Error.Render("Delete this comment? (y/n)"))
		}
		if c.ID == p.Editing {
			body = lipgloss.JoinVertical(lipgloss.Left, body,
				s.TitleMuted.Render("editing below"))
		}
		if selected && i == v.commentCursor {
			parts = append(parts, s.CommentSelected.Render(body))
		} else {
			parts = append(parts, s.Comment.Render(body))
		}
	}

	if selected && v.composing {
		label := "New comment"
		if v.editingComment {
			label = "Edit comment"
		}
		parts = append(parts, "",
			s.TitleMuted.Render(label+"  (ctrl+s save • esc cancel • tab complete @name)"),
			s.InputFocused.Render(v.composer.View()),
		)
		if len(v.suggestions) > 0 {
			names := make([]string, len(v.suggestions))
			for i, n := range v.suggestions {
				names[i] = "@" + n
			}
			parts = append(parts, s.Mention.Render(strings.Join(names, "  ")))
		}
	}

	return s.FilterBar.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (v *TaskListView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	titleStyle := s.Input
	descStyle := s.Input
	categoryStyle := s.Input
	statusStyle := s.Button
	priorityStyle := s.Button
	btnStyle := s.Button

	switch v.createFocus {
	case fieldTitle:
		titleStyle = s.InputFocused
	case fieldDesc:
		descStyle = s.InputFocused
	case fieldCategory:
		categoryStyle = s.InputFocused
	case fieldStatus:
		statusStyle = s.ButtonFocused
	case fieldPriority:
		priorityStyle = s.ButtonFocused
	case fieldSave:
		btnStyle = s.ButtonFocused
	}

	inputWidth := clamp(contentWidth-6, 20, 60)

	lines := []string{
		s.Title.Render("New Task"),
		"",
		"Title:",
		titleStyle.Width(inputWidth).Render(v.newTitle.View()),
		"",
		"Description:",
		descStyle.Width(inputWidth).Render(v.newDesc.View()),
		"",
		"Category:",
		categoryStyle.Width(inputWidth).Render(v.newCategory.View()),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			statusStyle.Render("Status: "+string(v.newStatus)), " ",
			priorityStyle.Render("Priority: "+string(v.newPriority)),
		),
		"",
		btnStyle.Render(" Create "),
	}
	if v.createErr != "" {
		lines = append(lines, "", s.Error.Render(v.createErr))
	}
	lines = append(lines, "", s.TitleMuted.Render("Tab: next • Space: cycle • Ctrl+S: save • Esc: cancel"))

	form := lipgloss.JoinVertical(lipgloss.Left, lines...)
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderHelp() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 60 {
		return s.Help.Render(s.HelpKey.Render("?") + " help")
	}
	return s.Help.Render(
		fmt.Sprintf("%s comments • %s new • %s status • %s priority • %s filter • %s clear • %s help",
			s.HelpKey.Render("↵"),
			s.HelpKey.Render("n"),
			s.HelpKey.Render("s"),
			s.HelpKey.Render("p"),
			s.HelpKey.Render("S/P/C"),
			s.HelpKey.Render("x"),
			s.HelpKey.Render("?"),
		),
	)
}

func (v *TaskListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	bindings := []key.Binding{
		v.keys.Up, v.keys.Down, v.keys.Enter, v.keys.New, v.keys.Delete,
		v.keys.CycleStatus, v.keys.CyclePriority,
		v.keys.FilterStatus, v.keys.FilterPriority, v.keys.FilterCategory, v.keys.ClearFilter,
		v.keys.Comment, v.keys.CommentDown, v.keys.CommentUp, v.keys.EditComment, v.keys.DeleteComment,
		v.keys.Reload, v.keys.Tasks, v.keys.Mentions, v.keys.Audit, v.keys.Theme, v.keys.Quit,
	}
	helpItems := make([]string, 0, len(bindings)+2)
	for _, b := range bindings {
		h := b.Help()
		helpItems = append(helpItems, s.HelpKey.Render(fmt.Sprintf("%-7s", h.Key))+s.HelpDesc.Render(h.Desc))
	}
	helpItems = append(helpItems, "", s.TitleMuted.Render("Press any key to close"))

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.FilterBar.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *TaskListView) renderDeleteConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Task?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("Are you sure you want to delete %q?", v.deleteTargetName)),
		s.TitleMuted.Render("Its comments will be removed too."),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
