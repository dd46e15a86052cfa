// Package viz renders simulation state for the terminal.
//
//   - [Canvas]: Braille-based pixel canvas, 2x4 dots per cell
//   - [Scatter]: body positions drawn on a canvas
//   - [Heatmap]: a sampled potential grid as colored shade blocks
//
// Styles are lipgloss definitions shared by the CLI.
package viz
