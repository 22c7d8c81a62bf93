package cmd

import (
	"context"
	"log"
	httpNet "net/http"
	"os"
	"os/signal"
	"syscall"

	"incrementum/internal/delivery/http"
	"incrementum/internal/repository"
	"incrementum/internal/service"
	"incrementum/pkg/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the screener API and the metric refresh scheduler",
	Run:   Start,
}

func Start(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency()
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}

	repo := repository.NewRepository(appDep.cfg, appDep.db.DB, appDep.log)
	services := service.NewService(appDep.cfg, appDep.log, repo, appDep.cache)
	httpHandler := http.NewHttpAPIHandler(appDep.echo, appDep.validator, services, appDep.log)

	apiServer := NewHTTPServer(ctx, appDep, httpHandler)
	go func() {
		if err := apiServer.Start(); err != nil && err != httpNet.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	schedulerDone := make(chan struct{})
	utils.GoSafe(func() {
		defer close(schedulerDone)
		if err := services.SchedulerService.Start(ctx); err != nil {
			appDep.log.Error("Metric refresh scheduler failed", zap.Error(err))
		}
	})

	<-ctx.Done()
	log.Println("Shutting down gracefully...")

	if err := apiServer.Stop(); err != nil {
		log.Fatalf("Failed to stop HTTP server: %v", err)
	}
	<-schedulerDone

	if err := appDep.Close(); err != nil {
		log.Fatalf("Failed to close app dependency: %v", err)
	}
}
