// The business server hosts the dashboard API: intake detection, fabric
// analysis, order management, analytics, and approvals. It owns the full
// agent roster.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	analyticsx "github.com/freshfold/freshfold/agent/agents/analytics"
	fabricx "github.com/freshfold/freshfold/agent/agents/fabric"
	hitlx "github.com/freshfold/freshfold/agent/agents/hitl"
	notifyx "github.com/freshfold/freshfold/agent/agents/notify"
	offerx "github.com/freshfold/freshfold/agent/agents/offer"
	visionx "github.com/freshfold/freshfold/agent/agents/vision"
	contractx "github.com/freshfold/freshfold/agent/contract"
	dispatchx "github.com/freshfold/freshfold/agent/dispatch"
	promptx "github.com/freshfold/freshfold/agent/prompt"
	storex "github.com/freshfold/freshfold/agent/store"
	businessx "github.com/freshfold/freshfold/app/business"
	configx "github.com/freshfold/freshfold/pkg/config"
	geminix "github.com/freshfold/freshfold/pkg/gemini"
	_ "github.com/freshfold/freshfold/pkg/logger/autoload"
	pushx "github.com/freshfold/freshfold/pkg/push"
)

type AppConfig struct {
	Port        int           `split_words:"true" default:"5000"`
	OverlaysDir string        `split_words:"true" default:"static/overlays"`
	CallTimeout time.Duration `split_words:"true" default:"0"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("BUSINESS")
	storeCfg := configx.MustNew[storex.Config]("STORE")
	geminiCfg := configx.MustNew[geminix.Config]("GEMINI")
	pushCfg := configx.MustNew[pushx.Config]("PUSH")

	bank, err := storex.Open(ctx, *storeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open memory bank")
	}
	defer bank.Close()

	ai := geminix.MustNew(ctx, *geminiCfg)
	defer ai.Close()

	var pusher contractx.Pusher = pushx.LogPusher{}
	if pushCfg.URL != "" {
		pusher = pushx.MustNew(*pushCfg)
	}

	prompts := promptx.LoadPromptSet()
	a2a := dispatchx.New(dispatchx.WithCallTimeout(appCfg.CallTimeout))

	gate := hitlx.New(bank)

	a2a.Register(contractx.AgentVision, visionx.New(ai, prompts.Vision))
	a2a.Register(contractx.AgentFabric, fabricx.New(bank, ai, prompts.Fabric))
	a2a.Register(contractx.AgentHITL, gate)
	a2a.Register(contractx.AgentNotification, notifyx.New(pusher, notifyx.WithCopywriter(ai)))
	a2a.Register(contractx.AgentOffer, offerx.New(bank, a2a))
	a2a.Register(contractx.AgentRevenue, analyticsx.NewRevenueAgent(bank, ai))
	a2a.Register(contractx.AgentLogistics, analyticsx.NewLogisticsAgent(bank, ai))
	a2a.Register(contractx.AgentFeedback, analyticsx.NewFeedbackAgent(bank, ai))
	a2a.Register(contractx.AgentOrchestrator, analyticsx.NewOrchestrator(a2a, ai, prompts.Combined))

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Static("/static/overlays", appCfg.OverlaysDir)
	businessx.NewRouter(bank, a2a, gate, appCfg.OverlaysDir).Mount(engine)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", appCfg.Port),
		Handler: engine,
	}

	go func() {
		log.Info().Int("port", appCfg.Port).Msg("business server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
}
