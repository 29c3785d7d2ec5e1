package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/stemsi/exstem-drill/internal/config"
	"github.com/stemsi/exstem-drill/internal/database"
	"github.com/stemsi/exstem-drill/internal/logger"
	"github.com/stemsi/exstem-drill/internal/model"
	"github.com/stemsi/exstem-drill/internal/quiz"
	"github.com/stemsi/exstem-drill/internal/repository"
	"github.com/stemsi/exstem-drill/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	// Logs go to stderr so they never interleave with the quiz screen.
	log := logger.SetupTo(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "drill needs an interactive terminal")
		os.Exit(1)
	}

	ctx := context.Background()

	// ─── Open Storage ──────────────────────────────────────────────────
	storage, err := database.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer storage.Close()

	// ─── Initialize Services ──────────────────────────────────────────
	bankService := service.NewBankService(repository.NewBankCatalogRepository(cfg.BankDir), storage.KV, cfg.MaxUploadBytes, log)
	practiceService := service.NewPracticeService(storage.KV, log)
	preferenceService := service.NewPreferenceService(storage.KV, log)
	translationService := service.NewTranslationService(cfg, storage.Redis, log)

	for _, lerr := range bankService.Load(ctx) {
		log.Warn().Err(lerr).Msg("Bank skipped")
	}
	if err := practiceService.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("Practice history unavailable")
	}
	if err := preferenceService.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("Preferences unavailable")
	}

	quizService := service.NewQuizService(bankService, practiceService, preferenceService, translationService, nil, nil, log)

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		width = w
	}

	d := &drill{
		ctx:       ctx,
		in:        bufio.NewReader(os.Stdin),
		screen:    newScreen(os.Stdout, width),
		banks:     bankService,
		practice:  practiceService,
		quiz:      quizService,
		translate: preferenceService.TranslateEnabled(),
	}
	d.run()
}

type drill struct {
	ctx       context.Context
	in        *bufio.Reader
	screen    *screen
	banks     *service.BankService
	practice  *service.PracticeService
	quiz      *service.QuizService
	translate bool
}

func (d *drill) prompt(label string) (string, bool) {
	fmt.Print(label)
	line, err := d.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimSpace(line), true
}

func (d *drill) run() {
	fmt.Println("=== ExStem Drill ===")
	for {
		req, ok := d.chooseSession()
		if !ok {
			return
		}
		snap, err := d.quiz.Start(d.ctx, req)
		if err != nil {
			d.screen.problem(err)
			continue
		}
		if !d.play(snap) {
			return
		}
	}
}

// chooseSession asks for a bank and a mode. ok is false when the user quits.
func (d *drill) chooseSession() (model.StartSessionRequest, bool) {
	banks := d.banks.List()
	if len(banks) == 0 {
		fmt.Println("No question banks found in BANK_DIR.")
		return model.StartSessionRequest{}, false
	}
	for {
		d.screen.banks(banks, d.practice)
		choice, ok := d.prompt("Bank number (q to quit): ")
		if !ok || choice == "q" {
			return model.StartSessionRequest{}, false
		}
		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(banks) {
			fmt.Println("Unknown bank.")
			continue
		}

		req := model.StartSessionRequest{Bank: banks[n-1].Name, Mode: string(quiz.ModeAll)}
		mode, _ := d.prompt("Mode [all/fixed/custom/wrong] (all): ")
		if mode != "" {
			req.Mode = string(quiz.ParseMode(mode))
		}
		if req.Mode == string(quiz.ModeCustom) {
			req.Count, _ = d.prompt("How many questions (30): ")
		}
		return req, true
	}
}

// play drives one session. It returns false when the user quits the program.
func (d *drill) play(snap model.SessionSnapshot) bool {
	id := snap.SessionID
	for {
		if snap.State == model.SessionStateCompleted {
			return d.finish(id)
		}
		d.screen.question(snap)
		if d.translate && snap.Grading == nil {
			if tr, err := d.quiz.Translate(d.ctx, id); err == nil {
				d.screen.translation(tr)
			}
		}

		cmd, ok := d.prompt(d.screen.commands(snap))
		if !ok {
			return false
		}

		if cmd == "" {
			cmd = "S"
			if snap.State == model.SessionStateSubmitted {
				cmd = "N"
			}
		}
		next, err := d.apply(id, strings.ToUpper(cmd))
		switch {
		case errors.Is(err, errQuit):
			d.quiz.Discard(id)
			return false
		case errors.Is(err, errHome):
			d.quiz.Discard(id)
			return true
		case err != nil:
			if _, ok := service.AsPersistenceError(err); ok {
				fmt.Println(service.PersistenceNotice)
				snap = next
				continue
			}
			d.screen.problem(err)
			continue
		}
		snap = next
	}
}

var (
	errQuit = errors.New("quit")
	errHome = errors.New("home")
)

func (d *drill) apply(id, cmd string) (model.SessionSnapshot, error) {
	switch cmd {
	case "S":
		return d.quiz.Submit(d.ctx, id)
	case "N":
		return d.quiz.Next(id)
	case "P":
		return d.quiz.Previous(id)
	case "X":
		return d.quiz.End(id)
	case "T":
		d.translate = !d.translate
		return d.quiz.Snapshot(id)
	case "H":
		return model.SessionSnapshot{}, errHome
	case "Q":
		return model.SessionSnapshot{}, errQuit
	}

	// Anything else is a run of option letters, each one selected in turn.
	var snap model.SessionSnapshot
	for _, r := range cmd {
		if r == ' ' || r == ',' {
			continue
		}
		var err error
		if snap, err = d.quiz.Select(id, string(r)); err != nil {
			return snap, err
		}
	}
	if snap.SessionID == "" {
		return d.quiz.Snapshot(id)
	}
	return snap, nil
}

// finish shows the result and review. It returns false to quit.
func (d *drill) finish(id string) bool {
	res, err := d.quiz.Result(id)
	if err != nil {
		d.screen.problem(err)
		return true
	}
	review, _ := d.quiz.Review(id)
	d.screen.result(res, review)

	for {
		choice, ok := d.prompt("[r]etry, [h]ome or [q]uit: ")
		if !ok {
			return false
		}
		switch strings.ToLower(choice) {
		case "r":
			snap, err := d.quiz.Restart(d.ctx, id)
			if err != nil {
				d.screen.problem(err)
				return true
			}
			return d.play(snap)
		case "h", "":
			d.quiz.Discard(id)
			return true
		case "q":
			d.quiz.Discard(id)
			return false
		}
	}
}
