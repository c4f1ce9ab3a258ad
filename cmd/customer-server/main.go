// The customer server hosts the portal API: registration, order history,
// offers, and feedback. It shares the memory bank with the business
// server and carries only the notification and offer agents, as the
// portal never runs detection or analytics itself.
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

	notifyx "github.com/freshfold/freshfold/agent/agents/notify"
	offerx "github.com/freshfold/freshfold/agent/agents/offer"
	contractx "github.com/freshfold/freshfold/agent/contract"
	dispatchx "github.com/freshfold/freshfold/agent/dispatch"
	storex "github.com/freshfold/freshfold/agent/store"
	customerx "github.com/freshfold/freshfold/app/customer"
	configx "github.com/freshfold/freshfold/pkg/config"
	geminix "github.com/freshfold/freshfold/pkg/gemini"
	_ "github.com/freshfold/freshfold/pkg/logger/autoload"
	pushx "github.com/freshfold/freshfold/pkg/push"
)

type AppConfig struct {
	Port        int           `split_words:"true" default:"5001"`
	CallTimeout time.Duration `split_words:"true" default:"0"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("CUSTOMER")
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

	a2a := dispatchx.New(dispatchx.WithCallTimeout(appCfg.CallTimeout))
	a2a.Register(contractx.AgentNotification, notifyx.New(pusher, notifyx.WithCopywriter(ai)))

	offers := offerx.New(bank, a2a)
	a2a.Register(contractx.AgentOffer, offers)

	engine := gin.New()
	engine.Use(gin.Recovery())
	customerx.NewRouter(bank, offers).Mount(engine)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", appCfg.Port),
		Handler: engine,
	}

	go func() {
		log.Info().Int("port", appCfg.Port).Msg("customer server listening")
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
