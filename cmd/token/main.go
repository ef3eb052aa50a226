package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"xinan/internal/auth"
	"xinan/internal/platform/config"
)

// token prints a bearer token for the payroll API, signed with JWT_SECRET.
func main() {
	cfg := config.Load()
	user := flag.String("user", "", "user id placed in the token")
	role := flag.String("role", auth.RolePayroll, "payroll or viewer")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	if *user == "" || (*role != auth.RolePayroll && *role != auth.RoleViewer) {
		flag.Usage()
		os.Exit(2)
	}

	token, err := auth.GenerateToken(cfg.JWTSecret, auth.Claims{UserID: *user, RoleName: *role}, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
