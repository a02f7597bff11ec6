package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pawbook/pawbook/internal/conversation"
	"github.com/pawbook/pawbook/internal/schedule"
)

// Manual smoke tool for the small-talk responders. Sends a short transcript
// through the rule-based responder and, when GEMINI_API_KEY is set, through
// Gemini, so reply quality can be compared before flipping the flag in prod.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	sess := conversation.NewSession("llmtest", conversation.Context{Source: "cli"}, now)
	sess.Messages = []conversation.Message{
		{Role: conversation.RoleUser, Content: "Hi! Do you see rabbits?", Timestamp: now},
		{Role: conversation.RoleBot, Content: "We do! Rabbits, dogs, cats and more. Would you like to book a visit?", Timestamp: now},
	}
	question := "What should I bring to a first appointment?"

	divider := strings.Repeat("=", 60)
	fmt.Println(divider)
	fmt.Println("Responder Smoke Test")
	fmt.Println(divider)
	fmt.Printf("\nQuestion: %s\n", question)

	fmt.Println("\n[1] Rule-based responder...")
	rules := conversation.NewRuleBasedResponder(schedule.DefaultHours())
	reply, err := rules.Respond(ctx, sess, question)
	if err != nil {
		fmt.Printf("    rule-based error: %v\n", err)
	} else {
		fmt.Printf("    %s\n", reply)
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		fmt.Println("\n[2] Skipping Gemini (GEMINI_API_KEY not set)")
		return
	}

	fmt.Println("\n[2] Gemini responder...")
	gemini, err := conversation.NewGeminiResponder(ctx, geminiKey, os.Getenv("GEMINI_MODEL_ID"))
	if err != nil {
		fmt.Printf("    failed to create Gemini responder: %v\n", err)
		return
	}
	defer func() { _ = gemini.Close() }()

	start := time.Now()
	reply, err = gemini.Respond(ctx, sess, question)
	elapsed := time.Since(start)
	if err != nil {
		fmt.Printf("    Gemini error: %v\n", err)
		return
	}
	fmt.Printf("    Gemini response (%v):\n", elapsed.Round(time.Millisecond))
	fmt.Printf("    %s\n", reply)
}
