// Command fieldagent collects answers on a researcher's device. Answers are sent
// right away when the server is reachable and kept in a local bolt file otherwise.
//
//	fieldagent login  -email ana@example.com -password secret
//	fieldagent submit -survey <id> -question <id> -answer "Sim"
//	fieldagent sync
//	fieldagent status
//	fieldagent watch  -metrics-addr :9101
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vncsmyrnk/fieldsurvey/internal/adapters/apiclient"
	"github.com/vncsmyrnk/fieldsurvey/internal/adapters/connectivity"
	"github.com/vncsmyrnk/fieldsurvey/internal/adapters/localstore"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/ports"
	"github.com/vncsmyrnk/fieldsurvey/internal/core/services"
	"github.com/vncsmyrnk/fieldsurvey/internal/logger"
	"github.com/vncsmyrnk/fieldsurvey/internal/metrics"
)

const (
	tokenKey        = "authToken"
	refreshTokenKey = "refreshToken"
	researcherIDKey = "researcherId"
)

type agent struct {
	store  *localstore.Store
	client *apiclient.Client
	probe  *connectivity.Probe
	queue  *services.AnswerQueue
	log    *zap.Logger
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	server := fs.String("server", envOr("FIELDSURVEY_SERVER", "http://localhost:8080"), "API base URL")
	storePath := fs.String("store", envOr("FIELDSURVEY_STORE", "fieldagent.db"), "Local store file")
	logLevel := fs.String("log-level", envOr("LOG_LEVEL", "warn"), "Log level")

	var (
		email, password             string
		surveyID, questionID, value string
		interval                    time.Duration
		metricsAddr                 string
	)
	switch cmd {
	case "login":
		fs.StringVar(&email, "email", "", "Account email")
		fs.StringVar(&password, "password", "", "Account password")
	case "submit":
		fs.StringVar(&surveyID, "survey", "", "Survey ID")
		fs.StringVar(&questionID, "question", "", "Question ID")
		fs.StringVar(&value, "answer", "", "Answer text or chosen option")
	case "watch":
		fs.DurationVar(&interval, "interval", 15*time.Second, "Connectivity check interval")
		fs.StringVar(&metricsAddr, "metrics-addr", "", "Serve queue metrics on this address")
	case "sync", "status":
	default:
		usage()
		os.Exit(2)
	}
	fs.Parse(args)

	log := logger.New(logger.Config{Level: *logLevel})
	defer log.Sync()

	a, err := newAgent(*server, *storePath, interval, log)
	if err != nil {
		fail(err)
	}
	defer a.store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "login":
		err = a.login(ctx, email, password)
	case "submit":
		err = a.submit(ctx, surveyID, questionID, value)
	case "sync":
		err = a.sync(ctx)
	case "status":
		err = a.status()
	case "watch":
		err = a.watch(ctx, metricsAddr)
	}
	if err != nil {
		fail(err)
	}
}

func newAgent(server, storePath string, interval time.Duration, log *zap.Logger) (*agent, error) {
	store, err := localstore.Open(storePath)
	if err != nil {
		return nil, err
	}

	token, _, err := store.Get(tokenKey)
	if err != nil {
		store.Close()
		return nil, err
	}
	refresh, _, err := store.Get(refreshTokenKey)
	if err != nil {
		store.Close()
		return nil, err
	}

	client := apiclient.New(server, token)
	client.SetTokens(token, refresh)
	client.OnTokens(func(access, refresh string) {
		if err := store.Set(tokenKey, access); err != nil {
			log.Error("failed to save access token", zap.Error(err))
		}
		if err := store.Set(refreshTokenKey, refresh); err != nil {
			log.Error("failed to save refresh token", zap.Error(err))
		}
	})
	probe := connectivity.NewProbe(strings.TrimRight(server, "/")+"/health", interval, log)
	queue := services.NewAnswerQueue(client, probe, store, log)
	if err := queue.Load(context.Background()); err != nil {
		log.Warn("starting with an empty queue", zap.Error(err))
	}

	return &agent{store: store, client: client, probe: probe, queue: queue, log: log}, nil
}

func (a *agent) login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("-email and -password are required")
	}
	if _, _, err := a.client.Login(ctx, email, password); err != nil {
		return err
	}
	me, err := a.client.Me(ctx)
	if err != nil {
		return err
	}
	if err := a.store.Set(researcherIDKey, me.ID.String()); err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", me.Email, me.Role)
	return nil
}

func (a *agent) submit(ctx context.Context, surveyID, questionID, value string) error {
	sid, err := uuid.Parse(surveyID)
	if err != nil {
		return fmt.Errorf("invalid -survey: %w", err)
	}
	qid, err := uuid.Parse(questionID)
	if err != nil {
		return fmt.Errorf("invalid -question: %w", err)
	}
	raw, ok, err := a.store.Get(researcherIDKey)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not logged in, run fieldagent login first")
	}
	researcherID, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("stored researcher id is invalid: %w", err)
	}

	a.probe.Check(ctx)
	result := a.queue.SubmitAnswer(ctx, ports.AnswerInput{
		SurveyID:     sid,
		QuestionID:   qid,
		ResearcherID: researcherID,
		Answer:       value,
	})

	fmt.Printf("%s %s\n", result.Status, result.Answer.ID)
	if result.Reason != nil {
		fmt.Printf("reason: %v\n", result.Reason)
	}
	fmt.Printf("pending: %d\n", len(a.queue.Pending()))
	return nil
}

func (a *agent) sync(ctx context.Context) error {
	a.probe.Check(ctx)
	res, err := a.queue.SyncPendingAnswers(ctx)
	if err != nil {
		return fmt.Errorf("sync failed with %d answers pending: %w", res.Remaining, err)
	}
	fmt.Printf("synced %d, rejected %d, pending %d\n", res.Synced, res.Rejected, res.Remaining)
	return nil
}

func (a *agent) status() error {
	fmt.Printf("pending: %d\n", len(a.queue.Pending()))
	rejected := a.queue.Rejected()
	fmt.Printf("rejected: %d\n", len(rejected))
	for _, r := range rejected {
		fmt.Printf("  %s survey=%s question=%s answer=%q\n", r.ID, r.SurveyID, r.QuestionID, r.Answer)
	}
	if last, ok := a.queue.LastSync(); ok {
		fmt.Printf("last sync: %s\n", last.Local().Format(time.RFC1123))
	} else {
		fmt.Println("last sync: never")
	}
	return nil
}

func (a *agent) watch(ctx context.Context, metricsAddr string) error {
	if metricsAddr != "" {
		registry := prometheus.NewRegistry()
		metrics.RegisterAgent(registry)
		srv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler(registry)}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	if a.probe.Check(ctx) {
		if _, err := a.queue.SyncPendingAnswers(ctx); err != nil {
			a.log.Warn("initial sync failed", zap.Error(err))
		}
	}

	go a.queue.WatchAndSync(ctx)
	go a.probe.Run(ctx)

	fmt.Println("watching connectivity, press Ctrl+C to stop")
	<-ctx.Done()
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fieldagent <login|submit|sync|status|watch> [flags]")
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
