package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ansible-pdns-api/upsert-records/internal/pdns"
	"github.com/ansible-pdns-api/upsert-records/internal/plan"
	"github.com/ansible-pdns-api/upsert-records/internal/reconcile"
	"github.com/ansible-pdns-api/upsert-records/internal/zone"
	"github.com/namsral/flag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const usage = "Usage: upsert-records [flags] SERVER_LOCATION SERVER_ID VARFILE ZONE_ID"

var (
	apiKey     = flag.String("pdns_auth_api_key", "", "PowerDNS API key sent as the X-API-Key header")
	defaultTTL = flag.Uint("default_ttl", 3600, "TTL for RRsets when the varfile specifies none")
	dryRun     = flag.Bool("dry_run", false, "Compute and print the patch list without applying it")

	atomicLevel zap.AtomicLevel
	logger      *zap.Logger
)

func setupLogging() {
	logLevel := os.Getenv("LOG_LEVEL")
	logLevel = strings.ToUpper(logLevel)

	atomicLevel = zap.NewAtomicLevel()

	// Stdout carries the JSON patch list, so all logging goes to stderr.
	encoderCfg := zap.NewProductionEncoderConfig()
	logger = zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		atomicLevel,
	))

	switch logLevel {
	case "DEBUG":
		atomicLevel.SetLevel(zap.DebugLevel)
	case "INFO":
		atomicLevel.SetLevel(zap.InfoLevel)
	case "WARN":
		atomicLevel.SetLevel(zap.WarnLevel)
	case "ERROR":
		atomicLevel.SetLevel(zap.ErrorLevel)
	case "FATAL":
		atomicLevel.SetLevel(zap.FatalLevel)
	case "PANIC":
		atomicLevel.SetLevel(zap.PanicLevel)
	default:
		atomicLevel.SetLevel(zap.InfoLevel)
	}
}

func main() {
	// Parse the arguments. The API key normally arrives through the
	// PDNS_AUTH_API_KEY environment variable.
	flag.Parse()

	setupLogging()
	defer func() { _ = logger.Sync() }()

	args := flag.Args()
	if len(args) != 4 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	serverLocation := args[0]
	serverID := args[1]
	varFilePath := args[2]
	zoneID := args[3]

	if *apiKey == "" {
		logger.Fatal("PDNS_AUTH_API_KEY must be set.")
	}

	varFile, err := zone.LoadVarFile(varFilePath)
	if err != nil {
		logger.Fatal("Failed to load varfile!", zap.Error(err))
	}

	zoneVars, ok := varFile.Zones[zoneID]
	if !ok {
		logger.Fatal("Varfile has no configuration for zone.", zap.String("zone", zoneID))
	}

	ttl := zoneVars.DefaultTTL
	if ttl == 0 {
		ttl = uint32(*defaultTTL)
	}

	// Desired state is validated before the first network call.
	desired, err := zone.BuildIndex(logger, zoneVars.Records, ttl)
	if err != nil {
		logger.Fatal("Failed to build desired record sets!", zap.Error(err))
	}

	client := pdns.NewClient(serverLocation, serverID, *apiKey, logger)

	remote, err := client.FetchZoneIndex(zoneID)
	if err != nil {
		logger.Fatal("Failed to fetch remote zone state!", zap.Error(err))
	}

	patches, err := reconcile.Plan(logger, desired, remote, zoneID, ttl)
	if err != nil {
		logger.Fatal("Reconciliation failed!", zap.Error(err))
	}

	if *dryRun {
		fmt.Fprint(os.Stderr, plan.Render(zoneID, patches))
	} else if len(patches) > 0 {
		if err := client.ApplyPatches(zoneID, patches); err != nil {
			logger.Fatal("Failed to apply patches!", zap.Error(err))
		}
	}

	if patches == nil {
		patches = []zone.Patch{}
	}
	output, err := json.Marshal(patches)
	if err != nil {
		logger.Fatal("Failed to encode patch list!", zap.Error(err))
	}
	fmt.Println(string(output))
}
