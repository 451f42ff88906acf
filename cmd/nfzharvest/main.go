package main

import (
	"context"

	"nfzharvest/cmd/nfzharvest/commands"
	"nfzharvest/lib/serviceutil"
	"nfzharvest/lib/telemetry"
)

func main() {
	ctx := context.Background()
	tel, err := telemetry.SetupFromEnv(ctx, "nfzharvest")
	if err != nil {
		serviceutil.Fatal("failed to initialize telemetry", err)
	}
	defer tel.Shutdown(ctx)

	commands.ExecuteContext(ctx)
}
