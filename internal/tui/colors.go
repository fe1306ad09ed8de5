package tui

// Color constants for the hamro watch view theme
const (
	// Base Colors
	ColorBorder = "#33415C" // Grey-blue

	// Text Colors
	ColorPrimaryText   = "#E8EDF5" // Primary text (titles, the clock)
	ColorSecondaryText = "#A9B4C6" // Secondary text
	ColorDisabledText  = "#687184" // Disabled/muted text
	ColorHelpText      = "240"     // Dark grey for help text

	// Accent Colors (Teal theme)
	ColorAccentMain   = "#0D9488" // Accent elements, active borders
	ColorAccentBright = "#2DD4BF" // Highlights, the running clock

	// State Colors
	ColorError   = "#EF4444" // Failed actions
	ColorSuccess = "#22C55E" // Completed tasks
	ColorWarning = "#F59E0B" // Paused state
)
