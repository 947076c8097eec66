// Package main provides the command-line interface for the divrank rating
// engine. It implements subcommands for processing contest and training
// monitors, rebuilding aggregates, inspecting users and browsing the
// standings.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/olympboard/divrank/pkg/config"
	"github.com/olympboard/divrank/pkg/monitor"
	"github.com/olympboard/divrank/pkg/rating"
	"github.com/olympboard/divrank/pkg/tui"
)

// Version information - set by build process
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// GlobalOptions defines flags shared by every subcommand.
type GlobalOptions struct {
	Config  string `long:"config" short:"c" description:"Configuration file path" default:"divrank.yaml"`
	Verbose bool   `long:"verbose" short:"v" description:"Enable verbose logging"`
	Version bool   `long:"version" description:"Show version information"`
}

// ProcessCommand handles 'divrank process': one contest division.
type ProcessCommand struct {
	Contest  string `long:"contest" short:"i" description:"Contest id, e.g. contest_0012" required:"true"`
	Division int    `long:"division" short:"d" description:"Division number (1-4)" required:"true"`

	Global *GlobalOptions
}

// ProcessAllCommand handles 'divrank process-all': every division of a contest.
type ProcessAllCommand struct {
	Contest string `long:"contest" short:"i" description:"Contest id, e.g. contest_0012" required:"true"`

	Global *GlobalOptions
}

// TrainingCommand handles 'divrank training'.
type TrainingCommand struct {
	Training string `long:"training" short:"i" description:"Training id, e.g. training_0003" required:"true"`

	Global *GlobalOptions
}

// RebuildCommand handles 'divrank rebuild'.
type RebuildCommand struct {
	Global *GlobalOptions
}

// UserCommand handles 'divrank user': one user's profile.
type UserCommand struct {
	Nickname string `long:"nickname" short:"n" description:"User nickname" required:"true"`
	Format   string `long:"format" description:"Output format (text/json)" default:"text"`

	Global *GlobalOptions
}

// StandingsCommand handles 'divrank standings'.
type StandingsCommand struct {
	Batch bool `long:"batch" description:"Print the table and exit instead of the interactive view"`

	Global *GlobalOptions
}

// ValidateCommand handles 'divrank validate': monitor file preflight.
type ValidateCommand struct {
	Input   string `long:"input" short:"i" description:"Path to monitor CSV file" required:"true"`
	Preview int    `long:"preview" description:"Number of rows to preview" default:"5"`

	Global *GlobalOptions
}

// ErrorCode represents CLI exit codes
type ErrorCode int

const (
	ExitSuccess ErrorCode = iota
	ExitFileError
	ExitConfigError
	ExitProcessError
	ExitLookupError
)

// CLIError represents a CLI error with exit code
type CLIError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
}

func (e *CLIError) Error() string {
	return e.Message
}

// formatErrorJSON formats error as JSON for structured output
func formatErrorJSON(err *CLIError) string {
	errorObj := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    err.Code,
			"message": err.Message,
		},
	}
	if err.Suggestions != nil {
		errorObj["error"].(map[string]interface{})["suggestions"] = err.Suggestions
	}

	jsonBytes, _ := json.MarshalIndent(errorObj, "", "  ")
	return string(jsonBytes)
}

func main() {
	if err := run(); err != nil {
		if cliErr, ok := err.(*CLIError); ok {
			fmt.Fprintln(os.Stderr, formatErrorJSON(cliErr))
			os.Exit(int(cliErr.Code))
		}
		log.Fatal(err)
	}
}

func run() error {
	global := &GlobalOptions{}
	parser := flags.NewParser(global, flags.Default)
	parser.Usage = "[OPTIONS] COMMAND [COMMAND-OPTIONS]"

	processCmd := &ProcessCommand{Global: global}
	processAllCmd := &ProcessAllCommand{Global: global}
	trainingCmd := &TrainingCommand{Global: global}
	rebuildCmd := &RebuildCommand{Global: global}
	userCmd := &UserCommand{Global: global}
	standingsCmd := &StandingsCommand{Global: global}
	validateCmd := &ValidateCommand{Global: global}

	parser.AddCommand("process", "Process one contest division", "", processCmd)
	parser.AddCommand("process-all", "Process every division of a contest", "", processAllCmd)
	parser.AddCommand("training", "Process a training monitor", "", trainingCmd)
	parser.AddCommand("rebuild", "Rebuild aggregates from histories", "", rebuildCmd)
	parser.AddCommand("user", "Show a user's rating profile", "", userCmd)
	parser.AddCommand("standings", "Browse the global rating table", "", standingsCmd)
	parser.AddCommand("validate", "Validate a monitor CSV file", "", validateCmd)

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			switch flagsErr.Type {
			case flags.ErrHelp:
				return nil
			case flags.ErrCommandRequired:
				fmt.Fprintln(os.Stderr, "Error: No command specified")
				parser.WriteHelp(os.Stderr)
				return &CLIError{
					Code:    ExitConfigError,
					Message: "No command specified",
					Suggestions: []string{
						"Use 'divrank process --contest contest_0001 --division 4' to rate a division",
						"Use 'divrank --help' to see all available commands",
					},
				}
			default:
				return &CLIError{
					Code:    ExitConfigError,
					Message: fmt.Sprintf("Invalid arguments: %v", err),
				}
			}
		}
		return err
	}

	return nil
}

func showVersion() error {
	fmt.Printf("divrank %s (built %s, commit %s)\n", Version, BuildDate, GitCommit)
	return nil
}

// newEngine loads configuration and boots the engine. Shared by every
// subcommand.
func newEngine(global *GlobalOptions) (*rating.Engine, error) {
	if global != nil && global.Version {
		return nil, showVersion()
	}

	cfg, err := config.LoadWithEnvironment(global.Config)
	if err != nil {
		return nil, &CLIError{
			Code:    ExitConfigError,
			Message: fmt.Sprintf("Failed to load configuration: %v", err),
			Suggestions: []string{
				"Check configuration file syntax",
				"Use --config flag to specify a different config file",
			},
		}
	}

	engine, err := rating.New(*cfg)
	if err != nil {
		return nil, &CLIError{
			Code:    ExitConfigError,
			Message: fmt.Sprintf("Failed to initialize engine: %v", err),
		}
	}

	if global.Verbose {
		log.Printf("engine ready, base path %s", cfg.BasePath)
	}
	return engine, nil
}

// Execute implements the Command interface for ProcessCommand
func (c *ProcessCommand) Execute(args []string) error {
	engine, err := newEngine(c.Global)
	if err != nil || engine == nil {
		return err
	}

	ok, msg := engine.ProcessDivision(c.Contest, c.Division)
	if !ok {
		return &CLIError{
			Code:    ExitProcessError,
			Message: msg,
			Suggestions: []string{
				"Check that the contest directory and monitor.csv exist",
				"Use 'divrank validate --input <monitor.csv>' to inspect the table",
			},
		}
	}

	fmt.Println(msg)
	return nil
}

// Execute implements the Command interface for ProcessAllCommand
func (c *ProcessAllCommand) Execute(args []string) error {
	engine, err := newEngine(c.Global)
	if err != nil || engine == nil {
		return err
	}

	ok, msg := engine.ProcessAllDivisions(c.Contest)
	if !ok {
		return &CLIError{Code: ExitProcessError, Message: msg}
	}

	fmt.Println(msg)
	return nil
}

// Execute implements the Command interface for TrainingCommand
func (c *TrainingCommand) Execute(args []string) error {
	engine, err := newEngine(c.Global)
	if err != nil || engine == nil {
		return err
	}

	ok, msg := engine.ProcessTraining(c.Training)
	if !ok {
		return &CLIError{Code: ExitProcessError, Message: msg}
	}

	fmt.Println(msg)
	return nil
}

// Execute implements the Command interface for RebuildCommand
func (c *RebuildCommand) Execute(args []string) error {
	engine, err := newEngine(c.Global)
	if err != nil || engine == nil {
		return err
	}

	_, msg := engine.RebuildAggregates()
	fmt.Println(msg)
	return nil
}

// Execute implements the Command interface for UserCommand
func (c *UserCommand) Execute(args []string) error {
	engine, err := newEngine(c.Global)
	if err != nil || engine == nil {
		return err
	}

	stats, found := engine.GetUserStats(c.Nickname)
	if !found {
		return &CLIError{
			Code:    ExitLookupError,
			Message: fmt.Sprintf("User not found: %s", c.Nickname),
			Suggestions: []string{
				"Nicknames are case-sensitive",
				"Use 'divrank standings --batch' to list known users",
			},
		}
	}

	if c.Format == "json" {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return &CLIError{Code: ExitLookupError, Message: fmt.Sprintf("Failed to encode profile: %v", err)}
		}
		fmt.Println(string(data))
		return nil
	}

	printUserProfile(stats)
	return nil
}

func printUserProfile(stats *rating.UserStats) {
	fmt.Printf("%s\n", stats.Nickname)
	fmt.Printf("  Rating:   %d (%s)\n", stats.Rating, stats.RankTitle)
	fmt.Printf("  Division: %d\n", stats.Division)
	fmt.Printf("  Best:     %d\n", stats.BestRating)
	fmt.Printf("  Tasks:    %d\n", stats.TasksScore)
	fmt.Printf("  Contests: %d official, %d unofficial\n", stats.Contests, stats.UnofficialContests)
	if stats.LastContest != "" {
		fmt.Printf("  Last:     %s\n", stats.LastContest)
	}

	if len(stats.ContestHistory) > 0 {
		fmt.Println("  History:")
		for _, e := range stats.ContestHistory {
			marker := ""
			if e.Unofficial {
				marker = " (unofficial)"
			}
			fmt.Printf("    %s div%d: %d -> %d (%+d)%s\n",
				e.Contest, e.Division, e.OldRating, e.NewRating, e.Change, marker)
		}
	}
}

// Execute implements the Command interface for StandingsCommand
func (c *StandingsCommand) Execute(args []string) error {
	engine, err := newEngine(c.Global)
	if err != nil || engine == nil {
		return err
	}

	if c.Batch {
		printStandings(engine.Standings())
		return nil
	}

	if err := tui.Run(engine); err != nil {
		return &CLIError{Code: ExitProcessError, Message: fmt.Sprintf("Standings view failed: %v", err)}
	}
	return nil
}

func printStandings(rows []rating.StandingsRow) {
	fmt.Printf("%4s  %-24s %6s  %-18s %4s %6s %9s\n",
		"Rank", "Contestant", "Rating", "Title", "Div", "Tasks", "Contests")
	for _, row := range rows {
		fmt.Printf("%4d  %-24s %6d  %-18s %4d %6d %9d\n",
			row.Rank, row.Nickname, row.Rating, row.RankTitle, row.Division, row.TasksScore, row.Contests)
	}
}

// Execute implements the Command interface for ValidateCommand
func (c *ValidateCommand) Execute(args []string) error {
	if c.Global != nil && c.Global.Version {
		return showVersion()
	}

	cfg, err := config.LoadWithEnvironment(c.Global.Config)
	if err != nil {
		return &CLIError{
			Code:    ExitConfigError,
			Message: fmt.Sprintf("Failed to load configuration: %v", err),
		}
	}

	result, err := monitor.IngestFile(c.Input, cfg.Schema)
	if err != nil {
		return &CLIError{
			Code:    ExitFileError,
			Message: fmt.Sprintf("Failed to read monitor: %v", err),
			Suggestions: []string{
				"Check file path and name",
				"Ensure the file is a delimited text table with a header row",
			},
		}
	}

	fmt.Printf("Monitor: %s\n", c.Input)
	fmt.Printf("Rows: %d usable, %d skipped\n", len(result.Rows), result.Skipped)
	if len(result.Rows) == 0 {
		fmt.Println("Warning: no usable rows; check the header aliases in the configuration")
		return nil
	}

	fmt.Printf("Identity column: %q\n", result.Schema.Headers[result.Schema.NicknameCol])
	if result.Schema.ScoreCol >= 0 {
		fmt.Printf("Score column: %q\n", result.Schema.Headers[result.Schema.ScoreCol])
	} else {
		fmt.Println("Score column: none (scores default to 0)")
	}
	fmt.Printf("Task columns: %d\n", len(result.Schema.TaskCols))

	preview := c.Preview
	if preview > len(result.Rows) {
		preview = len(result.Rows)
	}
	fmt.Println("Preview:")
	for _, row := range result.Rows[:preview] {
		fmt.Printf("  %-24s score=%.1f solved=%d\n", row.Nickname, row.Score, row.TasksSolved)
	}
	return nil
}
