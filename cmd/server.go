package cmd

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/codeurluce/hellocenter-presence/api"
	"github.com/codeurluce/hellocenter-presence/api/admin"
	agentapi "github.com/codeurluce/hellocenter-presence/api/agent"
	"github.com/codeurluce/hellocenter-presence/cmd/flags"
	"github.com/codeurluce/hellocenter-presence/config"
	"github.com/codeurluce/hellocenter-presence/database/auditlog"
	"github.com/codeurluce/hellocenter-presence/database/dbcore"
	"github.com/codeurluce/hellocenter-presence/session"
	"github.com/codeurluce/hellocenter-presence/ws"
)

var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the presence server",
	Long:  `Start the presence server`,
	Run: func(cmd *cobra.Command, args []string) {
		RunServer()
	},
}

func init() {
	ServerCmd.PersistentFlags().StringVarP(&flags.Listen, "listen", "l",
		GetEnv("HELLOCENTER_LISTEN", ""), "监听地址 [env: HELLOCENTER_LISTEN]")
	ServerCmd.PersistentFlags().StringVar(&flags.DatabaseDriver, "db-driver",
		GetEnv("HELLOCENTER_DB_DRIVER", ""), "数据库类型 sqlite/mysql [env: HELLOCENTER_DB_DRIVER]")
	ServerCmd.PersistentFlags().StringVar(&flags.DatabaseDSN, "db-dsn",
		GetEnv("HELLOCENTER_DB_DSN", ""), "数据库连接串 [env: HELLOCENTER_DB_DSN]")
	RootCmd.AddCommand(ServerCmd)
}

func RunServer() {
	// #region 初始化
	if err := os.MkdirAll("./data", os.ModePerm); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	// 命令行覆盖
	if flags.Listen != "" {
		cfg.Listen = flags.Listen
	}
	if flags.DatabaseDriver != "" {
		cfg.DBDriver = flags.DatabaseDriver
	}
	if flags.DatabaseDSN != "" {
		cfg.DBDSN = flags.DatabaseDSN
	}

	if err := dbcore.InitDatabase(cfg.DBDriver, cfg.DBDSN); err != nil {
		log.Fatal(err)
	}

	session.Setup(cfg, ws.Hub{}, ws.Hub{})
	agentapi.ReadWait = cfg.AgentReadWait

	// 补齐上次异常退出遗留的开放区间
	session.RepairDanglingOnStartup(time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	session.StartWatchdog(ctx)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Any("/ping", func(c *gin.Context) {
		c.String(200, "pong")
	})

	// #region 公开查询
	r.GET("/api/agents", api.ListAgentsLive)
	r.GET("/api/agents/:uuid", api.GetAgentLive)
	r.GET("/api/agents/:uuid/cumulative", api.GetAgentCumulative)
	r.GET("/api/events/ws", api.EventsWS)

	// #region 坐席
	r.GET("/api/agent/session/ws", agentapi.SessionWS)

	// #region 管理员
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.POST("/agents/:uuid/pause", admin.ForcePause)
		adminGroup.POST("/agents/:uuid/disconnect", admin.ForceDisconnect)
		adminGroup.POST("/agents/:uuid/cumulative/:day/correct", admin.CorrectCumulative)
		adminGroup.GET("/agents/:uuid/corrections", admin.ListCorrections)
		adminGroup.GET("/agents/:uuid/intervals", admin.ListIntervalHistory)
		adminGroup.GET("/audit", admin.ListAuditEvents)
	}

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: r,
	}
	log.Printf("Starting server on %s ...", cfg.Listen)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	auditlog.Add("server_shutdown", "", "", "server is shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
}
