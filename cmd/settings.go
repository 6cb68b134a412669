package cmd

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hddwater/bargesim/internal/archive"
	"github.com/hddwater/bargesim/sim"
	"github.com/hddwater/bargesim/sim/route"
)

// envPrefix namespaces environment overrides: BARGESIM_PROJECT,
// BARGESIM_ARCHIVE and so on.
const envPrefix = "BARGESIM"

// Settings are the flags shared by every subcommand.
type Settings struct {
	Project  string `mapstructure:"project"`
	Routes   string `mapstructure:"routes"`
	Archive  string `mapstructure:"archive"`
	LogLevel string `mapstructure:"log"`
	Workers  int    `mapstructure:"workers"`
	JSON     bool   `mapstructure:"json"`
}

// loadSettings merges, in rising priority, flag defaults, a .env file, the
// environment and flags set on the command line.
func loadSettings(flags *pflag.FlagSet) (Settings, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return Settings{}, fmt.Errorf("binding flags: %w", err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("reading settings: %w", err)
	}
	if s.Project == "" {
		return Settings{}, fmt.Errorf("no project file: set --project or %s_PROJECT", envPrefix)
	}
	return s, nil
}

func (s Settings) applyLogLevel() error {
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", s.LogLevel)
	}
	logrus.SetLevel(level)
	return nil
}

// load reads the project file and its route table. --routes overrides the
// project's own routes entry.
func (s Settings) load() (sim.Project, *route.Table, error) {
	p, err := sim.LoadProject(s.Project)
	if err != nil {
		return sim.Project{}, nil, err
	}
	routesPath := p.Routes
	if s.Routes != "" {
		routesPath = s.Routes
	}
	if routesPath == "" {
		return sim.Project{}, nil, fmt.Errorf("project %s names no route table; set --routes", s.Project)
	}
	routes, err := route.Load(routesPath)
	if err != nil {
		return sim.Project{}, nil, err
	}
	logrus.Debugf("loaded %s: %d schedule entries, %d routes", s.Project, len(p.Config.Schedule), routes.Len())
	return p, routes, nil
}

// openArchive returns nil when no archive is configured.
func (s Settings) openArchive() (*archive.Store, error) {
	if s.Archive == "" {
		return nil, nil
	}
	return archive.Open(s.Archive)
}
