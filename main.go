package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/yamdb/yamdb/config"
	"github.com/yamdb/yamdb/database"
	"github.com/yamdb/yamdb/logger"
	"github.com/yamdb/yamdb/web"

	"github.com/spf13/cobra"
)

func initLogger() {
	level, err := logger.LevelFor(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

func initDB() {
	if err := database.InitDB(config.GetDatabaseConfig()); err != nil {
		log.Fatal(err)
	}
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())
	initLogger()
	defer logger.CloseLogger()
	initDB()
	defer database.CloseDB()

	server := web.NewServer()
	if err := server.Start(); err != nil {
		logger.Error("start server err:", err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("Received SIGHUP, restarting server")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			if err := server.Start(); err != nil {
				logger.Error("restart server err:", err)
				return
			}
		default:
			logger.Info("Received", sig, "shutting down")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb() {
	initDB()
	defer database.CloseDB()
	fmt.Println("Start migrating database...")
	if err := database.Migrate(); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Migration done!")
}

func createSuperuser(username, email string) {
	initDB()
	defer database.CloseDB()
	user, err := database.EnsureSuperuser(username, email)
	if err != nil {
		fmt.Println("create superuser failed:", err)
		os.Exit(1)
	}
	fmt.Printf("superuser %s <%s> is ready\n", user.Username, user.Email)
}

func main() {
	config.LoadEnv()

	var rootCmd = &cobra.Command{
		Use:   config.GetName(),
		Short: "YaMDb catalog and review API",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var username, email string
	var createSuperuserCmd = &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create a superuser or promote an existing account",
		Run: func(cmd *cobra.Command, args []string) {
			createSuperuser(username, email)
		},
	}
	createSuperuserCmd.Flags().StringVar(&username, "username", "", "superuser username")
	createSuperuserCmd.Flags().StringVar(&email, "email", "", "superuser email")
	_ = createSuperuserCmd.MarkFlagRequired("username")
	_ = createSuperuserCmd.MarkFlagRequired("email")

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.GetVersion())
		},
	}

	rootCmd.AddCommand(runCmd, migrateCmd, createSuperuserCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
