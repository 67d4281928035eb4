package tui

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spiffcs/storefront/internal/cart"
	"github.com/spiffcs/storefront/internal/catalog"
	"github.com/spiffcs/storefront/internal/constants"
	"github.com/spiffcs/storefront/internal/format"
	"github.com/spiffcs/storefront/internal/log"
	"github.com/spiffcs/storefront/internal/model"
	"github.com/spiffcs/storefront/internal/shopclient"
)

type pane int

const (
	paneList pane = iota
	paneDetail
	paneCart
)

// loadAction names the cache operation a load command ran.
type loadAction int

const (
	actionNone loadAction = iota
	actionInitial
	actionMore
)

// loadedMsg is delivered when a cache load finishes.
type loadedMsg struct {
	action loadAction
	err    error
}

// statusClearMsg clears the status line if it still shows message id.
type statusClearMsg struct {
	id int
}

// CatalogModel is the Bubble Tea model for browsing the product catalog.
type CatalogModel struct {
	ctx      context.Context
	products *catalog.Cache
	cart     *cart.Cart

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	snap       catalog.Snapshot
	pane       pane
	cursor     int
	cartCursor int
	loading    bool
	err        error
	failed     loadAction

	startPage    int
	username     string
	imageBaseURL string
	open         func(url string) error

	status       string
	statusID     int
	unauthorized bool

	width  int
	height int
}

// CatalogOption is a functional option for configuring a CatalogModel.
type CatalogOption func(*CatalogModel)

// WithStartPage sets the page the browser deep-links to on start.
func WithStartPage(page int) CatalogOption {
	return func(m *CatalogModel) {
		m.startPage = page
	}
}

// WithUsername sets the signed-in user's name shown in the header.
func WithUsername(name string) CatalogOption {
	return func(m *CatalogModel) {
		m.username = name
	}
}

// WithImageBaseURL sets the base URL product image paths are joined to.
func WithImageBaseURL(base string) CatalogOption {
	return func(m *CatalogModel) {
		m.imageBaseURL = base
	}
}

// WithOpener replaces the function used to open image URLs.
func WithOpener(fn func(url string) error) CatalogOption {
	return func(m *CatalogModel) {
		m.open = fn
	}
}

// NewCatalogModel creates a catalog browser over products and c.
func NewCatalogModel(ctx context.Context, products *catalog.Cache, c *cart.Cart, opts ...CatalogOption) CatalogModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := CatalogModel{
		ctx:       ctx,
		products:  products,
		cart:      c,
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   s,
		loading:   true,
		startPage: constants.FirstPage,
		open:      openURL,
	}

	for _, opt := range opts {
		opt(&m)
	}

	return m
}

// Unauthorized reports whether the browser exited because the session expired.
func (m CatalogModel) Unauthorized() bool {
	return m.unauthorized
}

// Init starts the spinner and the initial page load.
func (m CatalogModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(actionInitial))
}

// load returns a command running the given cache operation.
func (m CatalogModel) load(action loadAction) tea.Cmd {
	ctx, products, page := m.ctx, m.products, m.startPage
	return func() tea.Msg {
		var err error
		switch action {
		case actionInitial:
			err = products.InitialLoad(ctx, page)
		case actionMore:
			err = products.LoadMore(ctx)
		}
		return loadedMsg{action: action, err: err}
	}
}

// Update handles messages.
func (m CatalogModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadedMsg:
		return m.handleLoaded(msg)

	case statusClearMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m CatalogModel) handleLoaded(msg loadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.snap = m.products.Snapshot()

	if msg.err != nil {
		if errors.Is(msg.err, shopclient.ErrUnauthorized) {
			log.Warn("session expired while browsing")
			m.unauthorized = true
			return m, tea.Quit
		}
		log.Debug("catalog load failed", "error", msg.err)
		m.err = msg.err
		m.failed = msg.action
		return m, nil
	}

	m.err = nil
	m.failed = actionNone
	m.clampCursor()
	return m, nil
}

func (m CatalogModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Back):
		m.pane = paneList
		return m, nil
	case key.Matches(msg, m.keys.Cart):
		m.pane = paneCart
		m.clampCartCursor()
		return m, nil
	case key.Matches(msg, m.keys.Checkout):
		return m, m.setStatus("Checkout is not available yet")
	}

	if m.pane == paneCart {
		return m.handleCartKey(msg)
	}
	return m.handleListKey(msg)
}

func (m CatalogModel) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.pane == paneList && m.cursor < len(m.snap.Items)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Up):
		if m.pane == paneList && m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.More):
		if m.pane != paneList || m.loading {
			return m, nil
		}
		if !m.snap.CanLoadMore {
			return m, m.setStatus("No more products")
		}
		m.loading = true
		m.err = nil
		return m, m.load(actionMore)

	case key.Matches(msg, m.keys.Previous):
		if m.pane != paneList || m.loading || !m.snap.CanLoadPrevious {
			return m, nil
		}
		m.products.LoadPrevious()
		m.snap = m.products.Snapshot()
		m.clampCursor()

	case key.Matches(msg, m.keys.Retry):
		if m.loading || m.err == nil || m.failed == actionNone {
			return m, nil
		}
		action := m.failed
		m.loading = true
		m.err = nil
		return m, m.load(action)

	case key.Matches(msg, m.keys.Details):
		if _, ok := m.selected(); ok {
			m.pane = paneDetail
		}

	case key.Matches(msg, m.keys.Add):
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.cart.Add(p, 1)
		return m, m.setStatus(fmt.Sprintf("Added %s to cart", p.Name))

	case key.Matches(msg, m.keys.Increase):
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.cart.Add(p, 1)

	case key.Matches(msg, m.keys.Decrease):
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.cart.UpdateQuantity(p.ID, m.cart.Quantity(p.ID)-1)

	case key.Matches(msg, m.keys.Image):
		p, ok := m.selected()
		if !ok || p.ImagePath == "" {
			return m, nil
		}
		url := p.ImageURL(m.imageBaseURL)
		if err := m.open(url); err != nil {
			return m, m.setStatus(fmt.Sprintf("Failed to open image: %v", err))
		}
		return m, m.setStatus("Opened " + url)
	}

	return m, nil
}

func (m CatalogModel) handleCartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lines := m.cart.Items()

	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cartCursor < len(lines)-1 {
			m.cartCursor++
		}

	case key.Matches(msg, m.keys.Up):
		if m.cartCursor > 0 {
			m.cartCursor--
		}

	case key.Matches(msg, m.keys.Increase):
		if len(lines) > 0 {
			l := lines[m.cartCursor]
			m.cart.UpdateQuantity(l.Product.ID, l.Quantity+1)
		}

	case key.Matches(msg, m.keys.Decrease):
		if len(lines) > 0 {
			l := lines[m.cartCursor]
			m.cart.UpdateQuantity(l.Product.ID, l.Quantity-1)
			m.clampCartCursor()
		}

	case key.Matches(msg, m.keys.ClearCart):
		if m.cart.Len() == 0 {
			return m, nil
		}
		m.cart.Clear()
		m.cartCursor = 0
		return m, m.setStatus("Cart cleared")
	}

	return m, nil
}

// selected returns the product under the cursor.
func (m CatalogModel) selected() (model.Product, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snap.Items) {
		return model.Product{}, false
	}
	return m.snap.Items[m.cursor], true
}

func (m *CatalogModel) clampCursor() {
	if m.cursor >= len(m.snap.Items) {
		m.cursor = len(m.snap.Items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *CatalogModel) clampCartCursor() {
	n := m.cart.Len()
	if m.cartCursor >= n {
		m.cartCursor = n - 1
	}
	if m.cartCursor < 0 {
		m.cartCursor = 0
	}
}

// setStatus shows msg and schedules it to be cleared.
func (m *CatalogModel) setStatus(msg string) tea.Cmd {
	m.statusID++
	m.status = msg
	return clearStatusAfter(m.statusID, constants.StatusMessageTTL)
}

func clearStatusAfter(id int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusClearMsg{id: id}
	})
}

// visibleRows returns how many product rows fit on screen.
func (m CatalogModel) visibleRows() int {
	if m.height == 0 {
		return 20
	}
	rows := m.height - constants.HeaderLines - constants.FooterLines
	if m.help.ShowAll {
		rows -= len(m.keys.FullHelp()[0]) - 1
	}
	if rows < 1 {
		return 1
	}
	return rows
}

// pageSummary describes the visible window, e.g. "Pages 1-3 of 6".
func (m CatalogModel) pageSummary() string {
	if m.snap.VisiblePage == 0 {
		return ""
	}
	if m.snap.VisiblePage == 1 {
		return fmt.Sprintf("Page 1 of %d", m.snap.LastPage)
	}
	return fmt.Sprintf("Pages 1-%d of %d", m.snap.VisiblePage, m.snap.LastPage)
}

// cartBadge summarizes the cart for the header.
func (m CatalogModel) cartBadge() string {
	n := m.cart.TotalItems()
	if n == 0 {
		return "Cart empty"
	}
	noun := "items"
	if n == 1 {
		noun = "item"
	}
	return fmt.Sprintf("Cart: %d %s · %s", n, noun, format.Price(m.cart.TotalPrice()))
}

// openURL opens a URL in the default browser.
func openURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}
