// =============================
// File: internal/ui/model.go
// =============================
package ui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rovshanmuradov/candy-minter/internal/candymachine"
	"github.com/rovshanmuradov/candy-minter/internal/events"
	"github.com/rovshanmuradov/candy-minter/internal/logger"
	"github.com/rovshanmuradov/candy-minter/internal/mint"
	"github.com/rovshanmuradov/candy-minter/internal/ui/component"
	"github.com/rovshanmuradov/candy-minter/internal/ui/style"
)

const logRefreshInterval = time.Second

// MintService – часть фасада минта, нужная экрану.
type MintService interface {
	Initialize(ctx context.Context) error
	Info() (mint.Info, bool)
	Quote(n int) (mint.Quote, error)
	PaymentTokenBalance(ctx context.Context) (candymachine.TokenBalance, error)
	Mint(ctx context.Context, n int) (mint.BatchResult, error)
	MintSingle(ctx context.Context) (mint.AttemptResult, error)
}

// Config – параметры экрана.
type Config struct {
	Title    string
	Wallet   string
	MaxBatch int
}

type phase int

const (
	phaseLoading phase = iota
	phaseReady
	phaseMinting
	phaseResult
)

// Model – экран минта: загрузка, сводка, ввод количества, подтверждение
// подписи, статус и итоговая панель.
type Model struct {
	ctx     context.Context
	service MintService
	cfg     Config
	updates <-chan tea.Msg
	keys    KeyMap
	styles  style.MintStyles

	phase   phase
	info    mint.Info
	loaded  bool
	balance candymachine.TokenBalance
	status  string
	err     error

	attempt int
	total   int
	result  mint.BatchResult

	pending    *ApprovalRequestMsg
	logsHidden bool
	refreshing bool

	input   textinput.Model
	spinner spinner.Model
	bar     progress.Model
	help    help.Model
	logs    *component.LogPane

	width  int
	height int
}

// NewModel creates the mint screen.
func NewModel(ctx context.Context, service MintService, cfg Config, updates <-chan tea.Msg, logs *logger.LogBuffer) *Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 3
	ti.Width = 4
	ti.SetValue("1")
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if cfg.Title == "" {
		cfg.Title = "Candy Machine"
	}

	return &Model{
		ctx:     ctx,
		service: service,
		cfg:     cfg,
		updates: updates,
		keys:    DefaultKeyMap(),
		styles:  style.NewMintStyles(style.DefaultPalette()),
		phase:   phaseLoading,
		status:  "Loading candy machine...",
		input:   ti,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		help:    help.New(),
		logs:    component.NewLogPane(logs),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadCmd(), m.spinner.Tick, logTick()}
	if m.updates != nil {
		cmds = append(cmds, WaitForUpdate(m.updates))
	}
	return tea.Batch(cmds...)
}

func logTick() tea.Cmd {
	return tea.Tick(logRefreshInterval, func(time.Time) tea.Msg { return logTickMsg{} })
}

func (m *Model) loadCmd() tea.Cmd {
	ctx := m.ctx
	svc := m.service
	return func() tea.Msg {
		err := svc.Initialize(ctx)
		info, ok := svc.Info()
		msg := StateLoadedMsg{Info: info, Loaded: ok, Err: err}
		if err == nil {
			if tb, balErr := svc.PaymentTokenBalance(ctx); balErr == nil {
				msg.Balance = tb
			}
		}
		return msg
	}
}

func (m *Model) mintCmd(n int) tea.Cmd {
	ctx := m.ctx
	svc := m.service
	return func() tea.Msg {
		if n == 1 {
			attempt, err := svc.MintSingle(ctx)
			if err != nil {
				return MintDoneMsg{Err: err}
			}
			res := mint.BatchResult{TotalRequested: 1, Attempts: []mint.AttemptResult{attempt}}
			if attempt.Success {
				res.TotalMinted = 1
			} else {
				res.Errors = []string{fmt.Sprintf("Mint 1 failed: %s", attempt.ErrorMessage)}
			}
			return MintDoneMsg{Result: res}
		}
		res, err := svc.Mint(ctx, n)
		return MintDoneMsg{Result: res, Err: err}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		_, cmd := m.Update(msg.msg)
		return m, tea.Batch(cmd, WaitForUpdate(m.updates))

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.logs.SetSize(msg.Width, msg.Height/3)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case logTickMsg:
		return m, logTick()

	case StateLoadedMsg:
		m.refreshing = false
		if msg.Loaded {
			m.info, m.loaded = msg.Info, true
		}
		if msg.Balance != (candymachine.TokenBalance{}) {
			m.balance = msg.Balance
		}
		if msg.Err != nil {
			m.err = msg.Err
			m.status = "Failed to load candy machine"
		} else if m.phase == phaseLoading || m.phase == phaseReady {
			m.err = nil
			m.status = ""
		}
		if m.phase == phaseLoading {
			m.phase = phaseReady
		}
		return m, nil

	case MintDoneMsg:
		m.phase = phaseResult
		m.result = msg.Result
		m.err = msg.Err
		m.status = ""
		m.restoreLogs()
		m.refreshing = true
		return m, m.loadCmd()

	case EventMsg:
		m.handleEvent(msg.Event)
		return m, nil

	case FocusMsg:
		if m.logs.Visible() {
			m.logs.SetVisible(false)
			m.logsHidden = true
		}
		m.status = "Waiting for wallet approval"
		return m, nil

	case ApprovalRequestMsg:
		req := msg
		m.pending = &req
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) && !(m.pending != nil && msg.String() == "q") {
		m.answer(false)
		return m, tea.Quit
	}

	if m.pending != nil {
		switch {
		case key.Matches(msg, m.keys.Approve):
			m.answer(true)
			m.status = "Transaction approved, sending..."
		case key.Matches(msg, m.keys.Reject):
			m.answer(false)
			m.status = "Transaction rejected"
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.ToggleLogs):
		m.logs.Toggle()
		m.logsHidden = false
		return m, nil
	}

	switch m.phase {
	case phaseResult:
		if key.Matches(msg, m.keys.Dismiss) || key.Matches(msg, m.keys.Mint) {
			m.phase = phaseReady
			m.err = nil
		}
		return m, nil

	case phaseReady:
		switch {
		case key.Matches(msg, m.keys.Mint):
			return m, m.startMint()
		case key.Matches(msg, m.keys.Refresh):
			m.refreshing = true
			m.status = "Refreshing..."
			return m, m.loadCmd()
		case key.Matches(msg, m.keys.Increase):
			m.setCount(m.count() + 1)
			return m, nil
		case key.Matches(msg, m.keys.Decrease):
			m.setCount(m.count() - 1)
			return m, nil
		}
		if isCountEdit(msg) {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// isCountEdit пропускает в поле ввода только цифры и удаление.
func isCountEdit(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete, tea.KeyLeft, tea.KeyRight:
		return true
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			if !unicode.IsDigit(r) {
				return false
			}
		}
		return len(msg.Runes) > 0
	}
	return false
}

func (m *Model) count() int {
	n, err := strconv.Atoi(strings.TrimSpace(m.input.Value()))
	if err != nil {
		return 0
	}
	return n
}

func (m *Model) setCount(n int) {
	if n < 1 {
		n = 1
	}
	if m.cfg.MaxBatch > 0 && n > m.cfg.MaxBatch {
		n = m.cfg.MaxBatch
	}
	m.input.SetValue(strconv.Itoa(n))
	m.input.CursorEnd()
}

func (m *Model) validateCount(n int) error {
	switch {
	case !m.loaded:
		return errors.New("candy machine state not loaded")
	case n < 1:
		return errors.New("enter a quantity of at least 1")
	case m.cfg.MaxBatch > 0 && n > m.cfg.MaxBatch:
		return fmt.Errorf("quantity %d exceeds max batch size %d", n, m.cfg.MaxBatch)
	case m.info.ItemsRemaining == 0:
		return errors.New("candy machine is sold out")
	case uint64(n) > m.info.ItemsRemaining:
		return fmt.Errorf("only %d items remaining", m.info.ItemsRemaining)
	}
	return nil
}

func (m *Model) startMint() tea.Cmd {
	n := m.count()
	if err := m.validateCount(n); err != nil {
		m.err = err
		return nil
	}
	m.err = nil
	m.phase = phaseMinting
	m.attempt, m.total = 0, n
	m.result = mint.BatchResult{}
	if q, err := m.service.Quote(n); err == nil {
		m.status = fmt.Sprintf("Minting %d NFT(s) for %g tokens", n, q.Tokens)
	} else {
		m.status = fmt.Sprintf("Minting %d NFT(s)", n)
	}
	return m.mintCmd(n)
}

func (m *Model) answer(ok bool) {
	if m.pending == nil {
		return
	}
	m.pending.Answer(ok)
	m.pending = nil
	m.restoreLogs()
}

func (m *Model) restoreLogs() {
	if m.logsHidden {
		m.logs.SetVisible(true)
		m.logsHidden = false
	}
}

func (m *Model) handleEvent(e events.Event) {
	switch ev := e.(type) {
	case events.AttemptStartedEvent:
		m.attempt, m.total = ev.Index, ev.Total
		m.status = fmt.Sprintf("Minting %d of %d...", ev.Index, ev.Total)
	case events.AttemptFinishedEvent:
		if ev.Success {
			m.status = fmt.Sprintf("Mint %d of %d confirmed", ev.Index, ev.Total)
		} else {
			m.status = fmt.Sprintf("Mint %d of %d failed: %s", ev.Index, ev.Total, ev.Error)
		}
	case events.BalanceChangedEvent:
		m.balance.Amount = ev.NewBalance
		m.balance.UIAmount = uiAmount(ev.NewBalance, m.balance.Decimals)
	}
}

func uiAmount(amount uint64, decimals uint8) float64 {
	if decimals == 0 {
		return float64(amount) / mint.TokenDecimalsDivisor
	}
	return float64(amount) / math.Pow10(int(decimals))
}

// View implements tea.Model.
func (m *Model) View() string {
	sections := []string{m.headerView()}

	if m.loaded {
		sections = append(sections, m.infoView())
	}

	switch {
	case m.pending != nil:
		sections = append(sections, m.approvalView())
	case m.phase == phaseResult:
		sections = append(sections, m.resultView())
	case m.phase == phaseReady:
		sections = append(sections, m.countView())
	}

	if line := m.statusView(); line != "" {
		sections = append(sections, line)
	}
	if m.logs.Visible() {
		sections = append(sections, m.logs.View())
	}
	sections = append(sections, m.help.View(m.keys))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) headerView() string {
	title := m.styles.Title.Render(m.cfg.Title)
	if m.cfg.Wallet == "" {
		return m.styles.Header.Render(title)
	}
	wallet := m.styles.Wallet.Render("wallet " + logger.ShortenAddress(m.cfg.Wallet))
	return m.styles.Header.Render(title + "  " + wallet)
}

func (m *Model) row(label, value string) string {
	return m.styles.Label.Render(label) + m.styles.Value.Render(value)
}

func (m *Model) infoView() string {
	info := m.info
	var percent float64
	if info.ItemsAvailable > 0 {
		percent = float64(info.ItemsRedeemed) / float64(info.ItemsAvailable)
	}
	rows := []string{
		m.row("Minted", fmt.Sprintf("%d / %d", info.ItemsRedeemed, info.ItemsAvailable)),
		m.bar.ViewAs(percent),
		m.row("Remaining", strconv.FormatUint(info.ItemsRemaining, 10)),
		m.row("Price", fmt.Sprintf("%g tokens", info.Price)),
		m.row("Your balance", fmt.Sprintf("%g tokens", m.balance.UIAmount)),
	}
	if info.ItemsRemaining == 0 {
		rows = append(rows, m.styles.Warning.Render("Sold out"))
	}
	return m.styles.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) countView() string {
	line := m.styles.Label.Render("Quantity") + m.input.View()
	if m.cfg.MaxBatch > 0 {
		line += m.styles.Muted.Render(fmt.Sprintf("  (max %d)", m.cfg.MaxBatch))
	}
	if n := m.count(); n > 0 {
		if q, err := m.service.Quote(n); err == nil {
			line += "\n" + m.row("Total", fmt.Sprintf("%g tokens", q.Tokens))
		}
	}
	return line
}

func (m *Model) approvalView() string {
	s := m.pending.Summary
	rows := []string{
		m.styles.Warning.Render("Approve transaction?"),
		m.row("Fee payer", logger.ShortenAddress(s.FeePayer)),
	}
	if s.Asset != "" {
		rows = append(rows, m.row("New asset", logger.ShortenAddress(s.Asset)))
	}
	rows = append(rows,
		m.row("Instructions", strconv.Itoa(s.Instructions)),
		m.row("Signers", strconv.Itoa(s.Signers)),
		m.styles.Muted.Render("[y] approve   [n] reject"),
	)
	return m.styles.Approval.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) resultView() string {
	r := m.result
	if m.err != nil && len(r.Attempts) == 0 {
		return m.styles.Panel.Render(m.styles.Error.Render(m.err.Error()))
	}

	var rows []string
	if r.Success() {
		rows = append(rows, m.styles.Success.Render(fmt.Sprintf("Minted %d of %d", r.TotalMinted, r.TotalRequested)))
	} else {
		rows = append(rows, m.styles.Error.Render(fmt.Sprintf("Minted 0 of %d", r.TotalRequested)))
	}
	for i, a := range r.Attempts {
		if a.Success {
			rows = append(rows, fmt.Sprintf("#%d %s  tx %s", i+1,
				a.MintedAsset.String(), logger.ShortenAddress(a.Signature)))
		}
	}
	for _, e := range r.Errors {
		rows = append(rows, m.styles.Error.Render(e))
	}
	if r.Aborted {
		rows = append(rows, m.styles.Warning.Render("Stopped: insufficient funds"))
	}
	if m.err != nil {
		rows = append(rows, m.styles.Warning.Render(m.err.Error()))
	}
	rows = append(rows, m.styles.Muted.Render("[esc] close"))

	panel := m.styles.Panel
	if r.Success() {
		panel = m.styles.SuccessUI
	}
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) statusView() string {
	var parts []string
	busy := m.phase == phaseLoading || m.phase == phaseMinting || m.refreshing
	if m.status != "" {
		if busy && m.pending == nil {
			parts = append(parts, m.spinner.View()+" "+m.status)
		} else {
			parts = append(parts, m.status)
		}
	}
	if m.err != nil && m.phase != phaseResult {
		parts = append(parts, m.styles.Error.Render(m.err.Error()))
	}
	if len(parts) == 0 {
		return ""
	}
	return m.styles.Status.Render(strings.Join(parts, "\n"))
}
