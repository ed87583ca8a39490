package tui

import "github.com/charmbracelet/lipgloss"

type palette struct {
	primary   lipgloss.Color
	secondary lipgloss.Color
	dim       lipgloss.Color
	accent    lipgloss.Color
	border    lipgloss.Color
	green     lipgloss.Color
	red       lipgloss.Color
	yellow    lipgloss.Color
	statusBg  lipgloss.Color
	statusFg  lipgloss.Color
	surface   lipgloss.Color
}

var (
	darkPalette = palette{
		primary:   "#7571F9",
		secondary: "#ABABAB",
		dim:       "#626262",
		accent:    "#F25D94",
		border:    "#383838",
		green:     "#25D366",
		red:       "#FF5F5F",
		yellow:    "#E5C07B",
		statusBg:  "#16213E",
		statusFg:  "#ABABAB",
		surface:   "#1E1E2E",
	}
	lightPalette = palette{
		primary:   "#5A56E0",
		secondary: "#3D3D3D",
		dim:       "#9B9B9B",
		accent:    "#D63F7A",
		border:    "#DBDBDB",
		green:     "#04B575",
		red:       "#D70000",
		yellow:    "#B58900",
		statusBg:  "#E8E8E8",
		statusFg:  "#3D3D3D",
		surface:   "#F5F5F5",
	}
)

// styles is rebuilt whenever the theme changes.
type styles struct {
	header       lipgloss.Style
	headerDim    lipgloss.Style
	sectionTitle lipgloss.Style

	cardTitle         lipgloss.Style
	cardTitleSelected lipgloss.Style
	cardMeta          lipgloss.Style
	cardThumb         lipgloss.Style
	cardPreview       lipgloss.Style
	cardMarker        lipgloss.Style
	emptyState        lipgloss.Style
	errorState        lipgloss.Style

	overlay      lipgloss.Style
	overlayTitle lipgloss.Style
	label        lipgloss.Style
	body         lipgloss.Style
	link         lipgloss.Style
	fieldActive  lipgloss.Style
	field        lipgloss.Style

	online   lipgloss.Style
	offline  lipgloss.Style
	checking lipgloss.Style

	statusBar    lipgloss.Style
	toastInfo    lipgloss.Style
	toastSuccess lipgloss.Style
	toastError   lipgloss.Style

	spinner      lipgloss.Style
	searchPrompt lipgloss.Style
	key          lipgloss.Style
	helpDim      lipgloss.Style
}

func newStyles(dark bool) styles {
	p := lightPalette
	if dark {
		p = darkPalette
	}

	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.primary).
			PaddingLeft(1),
		headerDim: lipgloss.NewStyle().
			Foreground(p.dim),
		sectionTitle: lipgloss.NewStyle().
			Foreground(p.secondary).
			Bold(true).
			PaddingLeft(1),

		cardTitle: lipgloss.NewStyle().
			Foreground(p.primary).
			Bold(true),
		cardTitleSelected: lipgloss.NewStyle().
			Foreground(p.accent).
			Bold(true),
		cardMeta: lipgloss.NewStyle().
			Foreground(p.dim),
		cardThumb: lipgloss.NewStyle().
			Foreground(p.green),
		cardPreview: lipgloss.NewStyle().
			Foreground(p.secondary),
		cardMarker: lipgloss.NewStyle().
			Foreground(p.accent),
		emptyState: lipgloss.NewStyle().
			Foreground(p.dim).
			Italic(true),
		errorState: lipgloss.NewStyle().
			Foreground(p.red),

		overlay: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.primary).
			Padding(1, 2),
		overlayTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.primary).
			MarginBottom(1),
		label: lipgloss.NewStyle().
			Foreground(p.dim).
			Bold(true),
		body: lipgloss.NewStyle().
			Foreground(p.secondary),
		link: lipgloss.NewStyle().
			Foreground(p.dim).
			Italic(true),
		fieldActive: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.accent),
		field: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.border),

		online: lipgloss.NewStyle().
			Foreground(p.green),
		offline: lipgloss.NewStyle().
			Foreground(p.red),
		checking: lipgloss.NewStyle().
			Foreground(p.yellow),

		statusBar: lipgloss.NewStyle().
			Background(p.statusBg).
			Foreground(p.statusFg).
			PaddingLeft(1).
			PaddingRight(1),
		toastInfo: lipgloss.NewStyle().
			Foreground(p.primary).
			Bold(true),
		toastSuccess: lipgloss.NewStyle().
			Foreground(p.green).
			Bold(true),
		toastError: lipgloss.NewStyle().
			Foreground(p.red).
			Bold(true),

		spinner: lipgloss.NewStyle().
			Foreground(p.accent),
		searchPrompt: lipgloss.NewStyle().
			Foreground(p.accent).
			Bold(true),
		key: lipgloss.NewStyle().
			Foreground(p.accent).
			Bold(true),
		helpDim: lipgloss.NewStyle().
			Foreground(p.dim),
	}
}
