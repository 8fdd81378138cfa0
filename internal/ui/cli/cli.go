// Package cli implements a command-line UI for the game.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	. "github.com/janpfeifer/rlTicTacToe/internal/state"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

var ansiFilter = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// displayWidth of s removes its color/control sequences and returns the length of what is left.
func displayWidth(s string) int {
	return len(ansiFilter.ReplaceAllString(s, ""))
}

// terminalWidth returns the width of the terminal, or 80 if it is not a terminal.
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return 80
}

func (ui *UI) printCentered(block string) {
	lines := strings.Split(block, "\n")
	blockWidth := 0
	for _, line := range lines {
		blockWidth = max(blockWidth, displayWidth(line))
	}
	indent := max((terminalWidth(ui.out)-blockWidth)/2, 0)
	for _, line := range lines {
		if len(line) == 0 {
			_, _ = fmt.Fprintln(ui.out)
			continue
		}
		_, _ = fmt.Fprintf(ui.out, "%s%s\n", strings.Repeat(" ", indent), line)
	}
}

// UI reads the human moves and prints the board.
type UI struct {
	color, clearScreen bool
	reader             *bufio.Reader
	out                io.Writer
}

var (
	coordinatesParser = regexp.MustCompile(`^\s*(\d)[\s,]+(\d)\s*$`)
	cellParser        = regexp.MustCompile(`^\s*(\d)\s*$`)

	// ErrTooManyParsingErrors is returned by ReadCommand after 3 consecutive invalid inputs.
	ErrTooManyParsingErrors = errors.New("failed to read command 3 times")
)

// New creates a UI that reads from stdin and prints to stdout.
func New(color bool, clearScreen bool) *UI {
	return NewWithIO(os.Stdin, os.Stdout, color, clearScreen)
}

// NewWithIO creates a UI that reads the commands from in and prints to out.
func NewWithIO(in io.Reader, out io.Writer, color bool, clearScreen bool) *UI {
	return &UI{
		color:       color,
		clearScreen: clearScreen,
		reader:      bufio.NewReader(in),
		out:         out,
	}
}

// ParseAction parses the human input: either "row col" (0-indexed, separated by space or comma)
// or the number of the cell from 1 to 9, in row-major order as printed by PrintBoard.
func ParseAction(text string) (Action, error) {
	if matches := coordinatesParser.FindStringSubmatch(text); len(matches) == 3 {
		row, _ := strconv.Atoi(matches[1])
		col, _ := strconv.Atoi(matches[2])
		action := Action{Row: int8(row), Col: int8(col)}
		if !action.Valid() {
			return NoAction, errors.Wrapf(ErrInvalidArgument, "row and column must be between 0 and %d, got %q", BoardSize-1, text)
		}
		return action, nil
	}
	if matches := cellParser.FindStringSubmatch(text); len(matches) == 2 {
		cell, _ := strconv.Atoi(matches[1])
		if cell < 1 || cell > NumCells {
			return NoAction, errors.Wrapf(ErrInvalidArgument, "cell number must be between 1 and %d, got %q", NumCells, text)
		}
		return ActionFromIndex(cell - 1), nil
	}
	return NoAction, errors.Wrapf(ErrInvalidArgument, "can't parse %q, type the cell number (1-9) or \"row col\"", text)
}

// ReadCommand reads the move of the next player of the board. Invalid inputs (including occupied cells)
// are reported and the user is asked again, up to 3 times.
func (ui *UI) ReadCommand(b *Board) (action Action, err error) {
	// ANSI escape codes for:
	// - \033[30;45;2m: Black over magenta (purple-ish)
	// - \033[39;49;0m: Reset all attributes to defaults
	const (
		inputAreaColor = "\033[30;45;2m"        // Purplish background
		inputAreaReset = "\033[39;49;0m\033[0K" // Reset color and clear to the end-of-line.
		inputWidth     = 8                      // Width of the input area
	)

	for numErrs := 0; numErrs < 3; numErrs++ {
		_, _ = fmt.Fprint(ui.out, "    ")
		ui.PrintPlayer(b.NextPlayer())
		_, _ = fmt.Fprint(ui.out, " move > ")
		if ui.color {
			// Print "input area" in purple, and move the cursor back to the beginning of the input area.
			_, _ = fmt.Fprintf(ui.out, "%s%s", inputAreaColor, strings.Repeat(" ", inputWidth))
			_, _ = fmt.Fprintf(ui.out, "\033[%dD", inputWidth-1) // Left 1 char padding.
		}

		var text string
		text, err = ui.reader.ReadString('\n')
		if ui.color {
			_, _ = fmt.Fprint(ui.out, inputAreaReset) // We don't want the purple color to leak.
		}
		if err != nil && (err != io.EOF || strings.TrimSpace(text) == "") {
			return NoAction, errors.Wrap(err, "reading move")
		}
		action, err = ParseAction(strings.TrimSpace(text))
		if err != nil {
			_, _ = fmt.Fprintf(ui.out, "    * %v\n", err)
			continue
		}
		if !b.IsEmpty(action) {
			_, _ = fmt.Fprintf(ui.out, "    * Cell %s is already taken by %s, choose an empty one.\n",
				action, b.At(int(action.Row), int(action.Col)))
			continue
		}
		return action, nil
	}
	return NoAction, ErrTooManyParsingErrors
}

// RunNextMove prints the board, reads the human move and applies it.
func (ui *UI) RunNextMove(b *Board) error {
	for {
		ui.Print(b)
		action, err := ui.ReadCommand(b)
		if errors.Is(err, ErrTooManyParsingErrors) {
			continue
		}
		if err != nil {
			return err
		}
		if _, _, err = b.Apply(action); err != nil {
			return err
		}
		return nil
	}
}

// Print the move number, the board and whose turn it is.
func (ui *UI) Print(b *Board) {
	if ui.clearScreen {
		_, _ = fmt.Fprint(ui.out, "\033c")
	}
	if ui.color {
		_, _ = fmt.Fprint(ui.out, "\033[37;03;1m")
	}
	_, _ = fmt.Fprintf(ui.out, "\nMove #%d%s\n\n", b.MoveNumber, ui.colorEnd())
	ui.PrintBoard(b)
	_, _ = fmt.Fprintln(ui.out)
	if !b.IsFinished() {
		_, _ = fmt.Fprint(ui.out, "\tTurn to play: ")
		ui.PrintPlayer(b.NextPlayer())
		_, _ = fmt.Fprintln(ui.out)
	}
}

// PrintBoard prints the marks, and the number of each empty cell, to be used as input.
func (ui *UI) PrintBoard(b *Board) {
	var sb strings.Builder
	for row := range BoardSize {
		if row > 0 {
			sb.WriteString("---+---+---\n")
		}
		for col := range BoardSize {
			if col > 0 {
				sb.WriteByte('|')
			}
			mark := b.At(row, col)
			if mark == Empty {
				_, _ = fmt.Fprintf(&sb, " %s%d%s ", ui.dimStart(), row*BoardSize+col+1, ui.colorEnd())
			} else {
				_, _ = fmt.Fprintf(&sb, "%s %s %s", ui.colorStart(mark), mark, ui.colorEnd())
			}
		}
		sb.WriteByte('\n')
	}
	ui.printCentered(sb.String())
}

// PrintPlayer prints the player's mark, colored if enabled.
func (ui *UI) PrintPlayer(player Mark) {
	_, _ = fmt.Fprintf(ui.out, "%s%s Player%s", ui.colorStart(player), player, ui.colorEnd())
}

// PrintWinner prints a banner with the result of the match.
func (ui *UI) PrintWinner(b *Board) {
	_, _ = fmt.Fprintln(ui.out)
	if b.IsTie() {
		ui.printCentered(
			lipgloss.NewStyle().
				Background(lipgloss.Color("13")).
				Foreground(lipgloss.Color("0")).
				Padding(1, 2).
				Render("*** DRAW: nobody wins! ***"))
	} else {
		winner := b.Winner()
		ui.printCentered(fmt.Sprintf("%s *** %s PLAYER WINS!! Congratulations! *** %s\n",
			ui.colorStart(winner), winner, ui.colorEnd()))
	}
	_, _ = fmt.Fprintln(ui.out)
}

func (ui *UI) colorStart(player Mark) string {
	if !ui.color {
		return ""
	}
	if player == X {
		return "\033[30;41;1m"
	}
	return "\033[30;42;1m"
}

func (ui *UI) dimStart() string {
	if !ui.color {
		return ""
	}
	return "\033[2m"
}

func (ui *UI) colorEnd() string {
	if !ui.color {
		return ""
	}
	return "\033[39;49;0m"
}
