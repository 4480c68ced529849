package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/homura-labs/storefront/pkg/config"
	"github.com/homura-labs/storefront/pkg/logger"
	"github.com/homura-labs/storefront/pkg/security"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// hashpass reads the storefront password from stdin and prints the argon2id
// hash expected in STOREFRONT_ACCESS_PASSWORD_HASH.
func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "hashpass"})

	_ = godotenv.Load()

	var params config.PasswordConfig
	if err := envconfig.Process(config.EnvPrefix, &params); err != nil {
		logg.Error(ctx, "parsing password params", err)
		os.Exit(1)
	}

	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		logg.Error(ctx, "reading password", err)
		os.Exit(1)
	}

	hash, err := security.HashPassword(strings.TrimRight(line, "\r\n"), params)
	if err != nil {
		logg.Error(ctx, "hashing password", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
