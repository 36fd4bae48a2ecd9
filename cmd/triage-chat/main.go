package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"triage-chatbot/internal/classify"
	"triage-chatbot/internal/config"
	"triage-chatbot/internal/core"
	"triage-chatbot/internal/gateway"
	"triage-chatbot/internal/observability"
	"triage-chatbot/pkg"
)

func main() {
	// .env is optional, absence is not an error
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "Log debug output to stderr")
	flag.Parse()

	if *verbose {
		observability.SetOutput(os.Stderr, slog.LevelDebug)
	} else {
		observability.SetOutput(io.Discard, slog.LevelInfo)
	}
	logger := observability.Logger()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	gw, err := buildGateway(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := newRenderer()
	ctrl := core.NewController(gw, r, logger,
		core.WithSendTimeout(cfg.SendTimeout),
		core.WithLanguage(core.Lang(strings.ToUpper(cfg.Language))),
	)

	fmt.Printf("triage-chat (%s mode). /help for commands. Ctrl+C to quit.\n\n", cfg.Mode)
	ctrl.Start()

	if err := run(ctx, ctrl, r, gw, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\nTạm biệt!")
}

// buildGateway selects the triage backend for the configured mode.
func buildGateway(cfg *config.Config, logger *slog.Logger) (core.Gateway, error) {
	switch cfg.Mode {
	case config.ModeLocal:
		return gateway.NewLocal(classify.NewKeywordClassifier(), cfg.ReplyDelay, logger), nil
	case config.ModeOpenAI:
		cls := classify.NewOpenAIClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		return gateway.NewLocal(cls, 0, logger), nil
	case config.ModeRemote:
		return gateway.NewTriageClient(cfg.APIBaseURL,
			gateway.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
			gateway.WithLogger(logger),
		), nil
	}
	return nil, fmt.Errorf("unknown mode %q", cfg.Mode)
}

func run(ctx context.Context, ctrl *core.Controller, r *renderer, gw core.Gateway, cfg *config.Config) error {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := handleCommand(ctx, line, ctrl, gw, cfg); quit {
				return nil
			}
			continue
		}

		// A bare number picks the matching quick reply of the last bot message.
		if n, err := strconv.Atoi(line); err == nil {
			if reply, ok := quickReplyByNumber(ctrl, n); ok {
				submit(ctx, ctrl, r, func() error { return ctrl.SelectQuickReply(reply) })
				continue
			}
		}

		submit(ctx, ctrl, r, func() error { return ctrl.Submit(line) })
	}
}

// submit runs one turn and blocks until the reply (or apology) has been
// rendered, so the prompt does not interleave with the bot output.
func submit(ctx context.Context, ctrl *core.Controller, r *renderer, do func() error) {
	if err := do(); err != nil {
		switch {
		case errors.Is(err, core.ErrBusy):
			color.Yellow("Trợ lý đang trả lời, vui lòng đợi.")
		case errors.Is(err, core.ErrConversationRouted):
			color.Yellow("Cuộc hội thoại đã được chuyển khoa. Dùng /book để đặt lịch hoặc /restart để bắt đầu lại.")
		case errors.Is(err, core.ErrEmptyMessage):
			// ignored, same as the widget
		}
		return
	}
	r.waitIdle(ctx)
}

func handleCommand(ctx context.Context, line string, ctrl *core.Controller, gw core.Gateway, cfg *config.Config) (quit bool) {
	switch line {
	case "/help":
		fmt.Println("/reset        bắt đầu phiên mới")
		fmt.Println("/restart      bắt đầu lại cuộc hội thoại (có độ trễ ngắn)")
		fmt.Println("/lang         đổi ngôn ngữ VI/EN")
		fmt.Println("/book         đặt lịch với khoa được đề xuất")
		fmt.Println("/departments  xem danh mục khoa (chế độ remote)")
		fmt.Println("/quit         thoát")
	case "/reset":
		ctrl.Reset()
		ctrl.Start()
	case "/restart":
		ctrl.StartOver()
	case "/lang":
		fmt.Printf("Ngôn ngữ: %s\n", ctrl.ToggleLanguage())
	case "/book":
		state := ctrl.State()
		card := lastDepartmentCard(state.Messages)
		if card == nil {
			color.Yellow("Chưa có khoa nào được đề xuất.")
			break
		}
		ctrl.BookAppointment(*card)
	case "/departments":
		client, ok := gw.(*gateway.TriageClient)
		if !ok {
			color.Yellow("Danh mục khoa chỉ có ở chế độ remote (TRIAGE_MODE=remote).")
			break
		}
		listDepartments(ctx, client, cfg.SendTimeout)
	case "/quit":
		return true
	default:
		fmt.Printf("Không hiểu lệnh %s. Dùng /help.\n", line)
	}
	return false
}

func listDepartments(ctx context.Context, client *gateway.TriageClient, timeout time.Duration) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	departments, err := client.Departments(reqCtx)
	if err != nil {
		color.Red("Không tải được danh mục khoa: %v", err)
		return
	}
	for _, d := range departments {
		fmt.Printf("  %2d. %s", d.ID, color.CyanString(d.Name))
		if d.Location != "" {
			fmt.Printf(" (%s)", d.Location)
		}
		fmt.Println()
		if d.Description != "" {
			fmt.Printf("      %s\n", d.Description)
		}
	}
}

func quickReplyByNumber(ctrl *core.Controller, n int) (pkg.QuickReply, bool) {
	state := ctrl.State()
	for i := len(state.Messages) - 1; i >= 0; i-- {
		msg := state.Messages[i]
		if msg.Type != pkg.TypeBot {
			continue
		}
		if n >= 1 && n <= len(msg.QuickReplies) {
			return msg.QuickReplies[n-1], true
		}
		return pkg.QuickReply{}, false
	}
	return pkg.QuickReply{}, false
}

func lastDepartmentCard(messages []pkg.Message) *pkg.DepartmentRecommendation {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Type == pkg.TypeBot && messages[i].DepartmentCard != nil {
			return messages[i].DepartmentCard
		}
	}
	return nil
}
