// Command demo drives a full client flow against a running server (start one
// with TEST_AUTH_ENABLED=true): sign up two users, sign in as the first,
// transfer money, and print the resulting balance.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/cognibank/cognibank/client"
	"github.com/cognibank/cognibank/internal/models"
)

func main() {
	serverURL := flag.String("server", "http://localhost:5001", "base URL of the cognibank server")
	password := flag.String("password", "Password1;", "password used for both demo users")
	amount := flag.Int64("amount", 200, "amount to transfer")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c := client.New(*serverURL)

	suffix := time.Now().UnixNano()
	aliceEmail := fmt.Sprintf("alice-%d@example.com", suffix)
	bobEmail := fmt.Sprintf("bob-%d@example.com", suffix)

	aliceID, err := c.SignUp(ctx, aliceEmail, *password, models.SignUpExtra{DisplayName: "Alice"})
	if err != nil {
		log.Fatalf("sign up alice: %v", err)
	}
	bobID, err := c.SignUp(ctx, bobEmail, *password, models.SignUpExtra{DisplayName: "Bob"})
	if err != nil {
		log.Fatalf("sign up bob: %v", err)
	}
	log.Printf("signed up alice=%s bob=%s", aliceID, bobID)

	if err := c.SignIn(ctx, aliceEmail, *password); err != nil {
		log.Fatalf("sign in: %v", err)
	}
	me, err := c.Me()
	if err != nil {
		log.Fatalf("me: %v", err)
	}
	log.Printf("signed in as %s (%s)", me.DisplayName, me.UserID)

	before, err := c.GetBalance(ctx)
	if err != nil {
		log.Fatalf("get balance: %v", err)
	}
	if err := c.Transfer(ctx, bobID, *amount); err != nil {
		log.Fatalf("transfer: %v", err)
	}
	after, err := c.GetBalance(ctx)
	if err != nil {
		log.Fatalf("get balance: %v", err)
	}
	log.Printf("transferred %d to bob: balance %d -> %d", *amount, before, after)
}
