// Package config provides configuration management for the node.
// Values come from the environment (GS_*), an optional .env file, a YAML
// config file and cobra flags; viper does the merging.
package config

import (
	"time"

	"github.com/spf13/viper"
)

type CompositorContract interface {
	LoadEnv() error
	LoadConf(path string) error
}

type Compositor struct {
	CMDLine *CMDLine
	Conf    *Conf
	Env     *Env

	// EnvFile is loaded into the process environment before GS_* lookup.
	EnvFile string

	v *viper.Viper
}

type Conf struct {
	Node            *Node       `mapstructure:"node"`
	HTTPServer      *HTTPServer `mapstructure:"http_server"`
	TLS             *TLS        `mapstructure:"tls"`
	RPC             *RPC        `mapstructure:"rpc"`
	Log             *Log        `mapstructure:"log"`
	DisableWarnings *[]string   `mapstructure:"disable_warnings"`
}

type Node struct {
	Mode       *string `mapstructure:"mode"`
	Name       *string `mapstructure:"name"`
	ShowConfig *bool   `mapstructure:"show_config"`
	ComDir     *string `mapstructure:"com_dir"`
}

type HTTPServer struct {
	Address     *string        `mapstructure:"address"`
	Port        *string        `mapstructure:"port"`
	Route       *string        `mapstructure:"route"`
	SessionTTL  *time.Duration `mapstructure:"session_ttl"`
	Timeout     *time.Duration `mapstructure:"timeout"`
	IdleTimeout *time.Duration `mapstructure:"idle_timeout"`
	MaxConns    *int           `mapstructure:"max_conns"`
	RateLimit   *float64       `mapstructure:"rate_limit"`
	RateBurst   *int           `mapstructure:"rate_burst"`
}

type TLS struct {
	TlsEnabled *bool   `mapstructure:"enabled"`
	CertFile   *string `mapstructure:"cert_file"`
	KeyFile    *string `mapstructure:"key_file"`
}

// RPC tunes the dispatcher.
type RPC struct {
	StrictNotifications *bool `mapstructure:"strict_notifications"`
	BatchWorkers        *int  `mapstructure:"batch_workers"`
	MaxBatch            *int  `mapstructure:"max_batch"`
}

type Log struct {
	JSON    *bool   `mapstructure:"json_format"`
	Level   *string `mapstructure:"level"`
	OutPath *string `mapstructure:"output"`
}

// Env structure for environment variables
type Env struct {
	ConfigPath *string `mapstructure:"config_path"`
	NodePath   *string `mapstructure:"node_path"`
}

type CMDLine struct {
	Run    Run
	Node   Root
	Call   Call
	Batch  Batch
	Config Show
}

type Root struct {
	Debug bool `persistent:"true" full:"debug" short:"d" def:"false" desc:"Set debug mode"`
}

type Run struct {
	ConfigPath string `persistent:"true" full:"config" short:"c" def:"./config.yaml" desc:"Path to configuration file"`
}

type Call struct {
	URL     string `full:"url" short:"u" def:"http://127.0.0.1:8080/rpc" desc:"Node endpoint"`
	ID      string `full:"id" short:"i" def:"1" desc:"Request id, sent as a string unless it parses as an integer"`
	Notify  bool   `full:"notify" short:"n" def:"false" desc:"Send a notification and do not wait for a result"`
	Session string `full:"session" short:"s" def:"" desc:"Reuse a session uuid"`
}

type Batch struct {
	URL     string `full:"url" short:"u" def:"http://127.0.0.1:8080/rpc" desc:"Node endpoint"`
	Session string `full:"session" short:"s" def:"" desc:"Reuse a session uuid"`
}

type Show struct {
	ConfigPath string `full:"config" short:"c" def:"./config.yaml" desc:"Path to configuration file"`
}
