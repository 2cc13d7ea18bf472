package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	defaultServer  = "http://localhost:8000"
	defaultTimeout = 10 * time.Second
	envPrefix      = "LAYERCTL"
)

var version = "dev"

// app carries state shared by every subcommand
type app struct {
	v       *viper.Viper
	cfgFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:          "layerctl",
		Short:        "Manage layers in a galaxy registry",
		Long:         `layerctl registers accounts, creates layers in your namespace and resolves layer links from any namespace.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: ~/.config/layerctl/config.yaml)")
	root.PersistentFlags().StringP("server", "s", "", "registry server URL")
	root.PersistentFlags().String("token", "", "bearer token (default: saved by login)")
	root.PersistentFlags().Duration("timeout", defaultTimeout, "request timeout")

	// Bind flags to viper
	_ = a.v.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	_ = a.v.BindPFlag("token", root.PersistentFlags().Lookup("token"))
	_ = a.v.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.createCmd(),
		a.resolveCmd(),
		a.listCmd(),
	)
	return root
}

// loadConfig layers flags over LAYERCTL_* env over the config file over defaults
func (a *app) loadConfig() error {
	a.v.SetDefault("server", defaultServer)
	a.v.SetDefault("timeout", defaultTimeout)
	a.v.SetEnvPrefix(envPrefix)
	a.v.AutomaticEnv()

	if a.cfgFile == "" {
		a.cfgFile = defaultConfigPath()
	}
	a.v.SetConfigFile(a.cfgFile)
	a.v.SetConfigType("yaml")

	if err := a.v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read config %s: %w", a.cfgFile, err)
	}
	return nil
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".layerctl", "config.yaml")
	}
	return filepath.Join(home, ".config", "layerctl", "config.yaml")
}

// saveToken persists the server and token, leaving other keys in the file untouched
func (a *app) saveToken(token string) error {
	if err := os.MkdirAll(filepath.Dir(a.cfgFile), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	file := viper.New()
	file.SetConfigFile(a.cfgFile)
	file.SetConfigType("yaml")
	if err := file.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read config %s: %w", a.cfgFile, err)
	}
	file.Set("server", a.v.GetString("server"))
	file.Set("token", token)

	if err := file.WriteConfigAs(a.cfgFile); err != nil {
		return fmt.Errorf("failed to write config %s: %w", a.cfgFile, err)
	}
	return os.Chmod(a.cfgFile, 0o600)
}

func (a *app) client() *client {
	return newClient(a.v.GetString("server"), a.v.GetString("token"), a.v.GetDuration("timeout"))
}

func (a *app) authedClient() (*client, error) {
	if a.v.GetString("token") == "" {
		return nil, errors.New("not logged in: run 'layerctl login' or set LAYERCTL_TOKEN")
	}
	return a.client(), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
