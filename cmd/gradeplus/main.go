package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/gradeplus/gradeplus-client/internal/api"
	"github.com/gradeplus/gradeplus-client/internal/auth"
	"github.com/gradeplus/gradeplus-client/internal/config"
	"github.com/gradeplus/gradeplus-client/internal/logger"
	"github.com/gradeplus/gradeplus-client/internal/model"
	"github.com/gradeplus/gradeplus-client/internal/results"
	"github.com/gradeplus/gradeplus-client/internal/session"
	"github.com/gradeplus/gradeplus-client/internal/storage"
	"github.com/gradeplus/gradeplus-client/internal/timer"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("api", cfg.APIBaseURL).
		Str("storage", cfg.StorageBackend).
		Str("log_level", cfg.LogLevel).
		Msg("Starting GradePlus client")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Local Storage ────────────────────────────────────────────
	store, closeStore, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open local storage")
	}
	defer closeStore()

	mirror := storage.NewMirror(store, cfg.SaveDebounce, log)

	// ─── Resolve Session Token ─────────────────────────────────────────
	token, err := resolveToken()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read session token")
	}
	authState := auth.NewState(token)
	authState.OnInvalidate(func() {
		fmt.Fprintln(os.Stderr, "\nYour session has expired. Please log in again.")
	})
	if exp, ok := authState.ExpiresAt(); ok && time.Until(exp) <= 0 {
		log.Fatal().Time("expired_at", exp).Msg("Session token already expired")
	}

	// ─── Initialize API Client ─────────────────────────────────────────
	client := api.NewClient(cfg.APIBaseURL, &http.Client{Timeout: cfg.HTTPTimeout}, authState, log)

	// ─── Pick a Paper ──────────────────────────────────────────────────
	paperID, err := pickPaper(ctx, client, mirror)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list test papers")
	}

	// ─── Start the Session ─────────────────────────────────────────────
	ctrl := session.New(paperID, client, mirror, log)
	if err := ctrl.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start session")
	}
	defer ctrl.Close()

	countdown := ctrl.Countdown()
	countdown.OnTierChange(func(tier timer.Tier) {
		if tier == timer.TierCritical {
			fmt.Fprintf(os.Stderr, "\n*** %s remaining ***\n", timer.Format(countdown.TimeLeft()))
		}
	})
	go countdown.Run(ctx)

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		log.Info().Str("signal", sig.String()).Msg("Interrupted, flushing local state")
		mirror.Flush()
		os.Exit(0)
	}()

	// ─── Exam Loop ─────────────────────────────────────────────────────
	runExamLoop(ctx, ctrl, log)

	// ─── Results ───────────────────────────────────────────────────────
	if ctrl.Completed() {
		viewedBefore := mirror.ResultsViewed(ctx, paperID)
		summary, offline, err := ctrl.Results(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Results unavailable")
			return
		}
		printSummary(summary, offline)
		// Returning viewers get the breakdown straight away.
		if viewedBefore || askYes("Show per-question analysis?") {
			printDetail(summary)
		}
	}
	mirror.Flush()
}

// openStorage selects the local persistence backend from configuration.
func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Store, func(), error) {
	switch cfg.StorageBackend {
	case "memory":
		return storage.NewMemoryStore(), func() {}, nil
	case "redis":
		rdb, err := storage.NewRedisStore(ctx, cfg.RedisURL, log)
		if err != nil {
			return nil, nil, err
		}
		return rdb, func() { rdb.Close() }, nil
	case "file":
		fs, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// resolveToken takes the session token from GRADEPLUS_TOKEN, falling back
// to a terminal prompt with echo disabled.
func resolveToken() (string, error) {
	if token := strings.TrimSpace(os.Getenv("GRADEPLUS_TOKEN")); token != "" {
		return token, nil
	}
	fmt.Fprint(os.Stderr, "Session token: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	return token, nil
}

// pickPaper lists available papers and reads a selection from stdin.
func pickPaper(ctx context.Context, client *api.Client, mirror *storage.Mirror) (string, error) {
	papers, err := client.ListTestPapers(ctx)
	if err != nil {
		return "", err
	}
	if len(papers) == 0 {
		return "", fmt.Errorf("no test papers available")
	}

	fmt.Println("\nAvailable test papers:")
	for i, p := range papers {
		tag := ""
		if mirror.ResultsViewed(ctx, p.ID) {
			tag = " (results viewed)"
		}
		fmt.Printf("  %d. %s — %d questions, %d min, %d marks%s\n",
			i+1, p.Name, p.QuestionCount, p.DurationMinutes, p.TotalMarks, tag)
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Select a paper (number, or text to filter): ")
		if !scanner.Scan() {
			return "", fmt.Errorf("stdin closed")
		}
		input := strings.TrimSpace(scanner.Text())
		if n, err := strconv.Atoi(input); err == nil {
			if n >= 1 && n <= len(papers) {
				return papers[n-1].ID, nil
			}
			fmt.Println("Enter a number from the list.")
			continue
		}
		for i, p := range papers {
			if strings.Contains(strings.ToLower(p.Name), strings.ToLower(input)) {
				fmt.Printf("  %d. %s\n", i+1, p.Name)
			}
		}
	}
}

func runExamLoop(ctx context.Context, ctrl *session.Controller, log zerolog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	printQuestion(ctrl)

	for !ctrl.Completed() {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		var err error
		switch cmd {
		case "a": // answer: a <option> for choices, a <text...> for text
			err = applyAnswer(ctrl, args)
		case "g": // go to question number
			var n int
			if n, err = oneNumber(args); err == nil {
				err = ctrl.NavigateTo(ctx, n-1)
			}
		case "n":
			err = ctrl.SaveAndNext(ctx)
		case "c":
			err = ctrl.ClearResponse(ctx)
		case "m":
			err = ctrl.MarkForReview(ctx)
		case "mn":
			err = ctrl.MarkAndNext(ctx)
		case "p":
			printPalette(ctrl)
			continue
		case "t":
			fmt.Printf("Time left: %s\n", timer.Format(ctrl.Countdown().TimeLeft()))
			continue
		case "pause":
			ctrl.Countdown().Pause()
			fmt.Println("Timer paused.")
			continue
		case "resume":
			ctrl.Countdown().Resume()
			fmt.Println("Timer resumed.")
			continue
		case "submit":
			fmt.Print("Submit the test? This cannot be undone [y/N]: ")
			if scanner.Scan() && strings.EqualFold(strings.TrimSpace(scanner.Text()), "y") {
				err = ctrl.ConfirmSubmit(ctx)
			}
		case "q":
			return
		case "h", "help":
			printHelp()
			continue
		default:
			fmt.Println("Unknown command, type 'h' for help.")
			continue
		}

		if err != nil {
			log.Warn().Err(err).Str("command", cmd).Msg("Command failed")
			fmt.Printf("!! %v\n", err)
		}
		if !ctrl.Completed() {
			printQuestion(ctrl)
		}
	}
}

func applyAnswer(ctrl *session.Controller, args []string) error {
	_, q := ctrl.Current()
	if q == nil {
		return fmt.Errorf("no question on screen")
	}
	switch q.Kind {
	case model.KindText:
		ctrl.SelectAnswer(model.TextAnswer(strings.Join(args, " ")))
	case model.KindMultiple:
		n, err := oneNumber(args)
		if err != nil {
			return err
		}
		if n < 1 || n > len(q.Options) {
			return fmt.Errorf("option %d out of range", n)
		}
		ctrl.ToggleOption(n - 1)
	default:
		n, err := oneNumber(args)
		if err != nil {
			return err
		}
		if n < 1 || n > len(q.Options) {
			return fmt.Errorf("option %d out of range", n)
		}
		ctrl.SelectAnswer(model.SingleAnswer(n - 1))
	}
	return nil
}

func oneNumber(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected one number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", args[0])
	}
	return n, nil
}

func printQuestion(ctrl *session.Controller) {
	idx, q := ctrl.Current()
	if q == nil {
		return
	}
	total := len(ctrl.Questions())
	fmt.Printf("\n[%s] Question %d of %d  (%s)\n", ctrl.CurrentSection(), idx+1, total, ctrl.Status(q.ID))
	fmt.Println(q.Text)
	for _, src := range q.Images {
		fmt.Printf("  [image: %s]\n", src)
	}
	for i, opt := range q.Options {
		marker := " "
		if a, ok := ctrl.Answer(q.ID); ok && a.Contains(i) {
			marker = "*"
		}
		fmt.Printf("  %s %d. %s\n", marker, i+1, opt)
	}
	if q.Kind == model.KindText {
		if a, ok := ctrl.Answer(q.ID); ok {
			fmt.Printf("  your answer: %s\n", a.Text)
		}
	}
}

func printPalette(ctrl *session.Controller) {
	counts := ctrl.StatusCounts()
	fmt.Println("\nQuestion palette:")
	for i, q := range ctrl.Questions() {
		fmt.Printf("  %2d: %s\n", i+1, ctrl.Status(q.ID))
	}
	fmt.Printf("answered=%d  marked=%d  answered-marked=%d  not-answered=%d  not-visited=%d\n",
		counts[model.StatusAnswered], counts[model.StatusMarked],
		counts[model.StatusAnsweredMarked], counts[model.StatusNotAnswered],
		counts[model.StatusNotVisited])
}

func printSummary(s results.Summary, offline bool) {
	fmt.Println("\n──────── Results ────────")
	if offline {
		fmt.Println("(offline summary from local data; scoring unavailable)")
	}
	fmt.Printf("Attempted:  %d / %d\n", s.Attempted, s.TotalQuestions)
	fmt.Printf("Correct:    %d    Incorrect: %d\n", s.CorrectCount, s.IncorrectCount)
	fmt.Printf("Marks:      %.2f / %.2f  (%.2f%%)\n", s.ObtainedMarks, s.MaxMarks, s.Percentage)
	fmt.Printf("Accuracy:   %.0f%%\n", s.Accuracy*100)
	for _, sec := range s.Sections {
		fmt.Printf("  %-20s %d/%d attempted, %d correct, %.2f/%.2f marks\n",
			sec.Name, sec.Attempted, sec.Total, sec.CorrectCount, sec.ObtainedMarks, sec.MaxMarks)
	}
}

func askYes(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(scanner.Text()), "y")
}

func printDetail(s results.Summary) {
	for i, qr := range s.PerQuestion {
		verdict := "unscored"
		switch {
		case !qr.Attempted:
			verdict = "unattempted"
		case qr.Scored && qr.Correct:
			verdict = "correct"
		case qr.Scored:
			verdict = "incorrect"
		}
		fmt.Printf("%2d. [%-11s] %+.2f  %s\n", i+1, verdict, qr.MarksDelta, qr.Question.Text)
		if qr.Explanation != "" {
			fmt.Printf("    %s\n", qr.Explanation)
		}
	}
}

func printHelp() {
	fmt.Print(`Commands:
  a <n|text>  answer the question (toggles the option for multi-select)
  g <n>       save and go to question n
  n           save and next
  c           clear response
  m           mark for review
  mn          mark for review and next
  p           question palette
  t           time left
  pause       pause the timer
  resume      resume the timer
  submit      submit the test
  q           quit without submitting
`)
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
