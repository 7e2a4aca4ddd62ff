package config

import (
	"fmt"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Will be set by go-build
var (
	Version string
	Rev     string
)

const (
	defaultRPCURL        = "https://rpc.ankr.com/eth_sepolia"
	defaultMarketDataURL = "https://api.coingecko.com/api/v3"
)

func Parse() *Config {
	// Set log format
	formatter := &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	}
	logrus.SetFormatter(formatter)
	logrus.SetOutput(colorable.NewColorableStderr()) // For Windows

	showVersion := pflag.BoolP("version", "v", false, "Show version number")
	showHelp := pflag.BoolP("help", "h", false, "Show usage message")
	pflag.CommandLine.MarkHidden("help")
	pflag.BoolP("debug", "d", false, "Enable debug mode")
	listTokens := pflag.BoolP("list-tokens", "l", false, "List supported tokens")
	pflag.StringP("token", "k", "ETH", "Symbol of the token to watch")
	pflag.String("compare", "", "Compare two tokens side by side, comma-separated (eg. \"ETH,BTC\")")
	pflag.String("period", "hourly", "Chart period, \"hourly\" (last day) or \"weekly\" (last 7 days)")
	pflag.IntP("refresh", "r", 60, "Auto refresh the watched token on every specified seconds, "+
		"\n0 fetches once and exits; note the oracle RPC and the market data API both rate-limit")
	var configFile string
	pflag.StringVarP(&configFile, "config-file", "c", "", "Config file path, "+
		"by default token-watch uses \"token_watch.yml\" in current directory or $HOME as config file")
	pflag.StringSliceP("show", "s", supportedColumns(), "Only show comma-separated columns")
	pflag.StringP("proxy", "p", "", "Proxy used when sending HTTP request \n(eg. "+
		"\"http://localhost:7777\", \"https://localhost:7777\", \"socks5://localhost:1080\")")
	pflag.IntP("timeout", "t", 10, "HTTP request timeout in seconds, applies to oracle and market data calls alike")
	pflag.Int("cache-ttl", 10, "Minutes a fetched snapshot or chart series stays fresh")
	pflag.String("rpc-url", defaultRPCURL, "Ethereum JSON-RPC endpoint the price oracles are read through")
	pflag.String("market-data-url", defaultMarketDataURL, "Base URL of the market data API")
	pflag.CommandLine.SortFlags = false
	pflag.Usage = showUsageAndExit
	pflag.Parse()

	if *showHelp {
		showUsageAndExit()
	}

	if *showVersion {
		fmt.Fprintf(os.Stderr, "Version %s", Version)
		if Rev != "" {
			fmt.Fprintf(os.Stderr, ", build %s", Rev)
		}
		fmt.Fprintln(os.Stderr)
		os.Exit(0)
	}

	viper.BindPFlags(pflag.CommandLine)
	// Set configure file
	viper.SetConfigName("token_watch") // name of config file (without extension)
	viper.AddConfigPath(".")           // path to look for the config file in
	viper.AddConfigPath("$HOME")       // optionally look for config in the HOME directory
	viper.AddConfigPath("/etc")        // and /etc
	if configFile != "" {
		viper.SetConfigFile(configFile)
	}
	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {
		switch err.(type) {
		case viper.ConfigFileNotFoundError:
			// The built-in token set covers the common case, a config file is optional
		default:
			logrus.Warnf("Error reading config file: %v", err)
		}
	}
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logrus.Fatalf("Failed to parse %q, error: %s\n", viper.ConfigFileUsed(), err)
	}
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if len(cfg.Tokens) == 0 {
		cfg.Tokens = defaultTokens()
	}
	if *listTokens {
		listTokensAndExit(cfg.Tokens)
	}
	logrus.Debugln("Using config file:", viper.ConfigFileUsed())
	return &cfg
}

func showUsageAndExit() {
	// Print usage message and exit
	fmt.Fprintf(os.Stderr, "\nUsage: %s [Options]\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "\nWatch on-chain oracle prices and market statistics of your favorite tokens in the terminal")
	fmt.Fprintln(os.Stderr, "\nOptions:")
	pflag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "\nSpot prices come from the Chainlink aggregator contract bound to each token,"+
		"\nmarket cap/volume/change and chart series come from the market data API.")
	os.Exit(0)
}

func listTokensAndExit(tokens []*TokenDescriptor) {
	fmt.Fprintln(os.Stderr, "Supported tokens:")
	for _, token := range tokens {
		fmt.Fprintf(os.Stderr, " %-5s %-10s oracle %s\n", token.Symbol, token.Name, token.OracleAddress)
	}
	os.Exit(0)
}
