// README: Scripted conversation against the in-process turn controller.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"tripchat/internal/app"
	"tripchat/internal/config"
	"tripchat/internal/logger"
	"tripchat/internal/modules/planner"
	"tripchat/internal/modules/session"
)

var script = []string{
	"부산 여행 가고 싶어",
	"해변 근처 감성 맛집 알려줘",
	"3월 5일부터 2박 3일이요",
	"어른 두 명이랑 아이 한 명이에요",
	"수영장 있는 가성비 호텔 추천해줘",
}

func main() {
	showContext := flag.Bool("context", false, "print the context after every turn")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		fmt.Fprintln(os.Stderr, "hint: TRIPCHAT_LLM_PROVIDER=none runs on rules only")
		os.Exit(1)
	}
	cfg.Store.Backend = config.StoreMemory
	l := logger.Init(logger.Config{Level: "warn", Pretty: true})
	ctx := logger.With(context.Background(), l)

	a, err := app.Build(ctx, cfg, nil)
	if err != nil {
		l.Fatal().Err(err).Msg("wire services")
	}
	defer a.Close()

	key, _ := session.NewKey("demo", "")
	for _, msg := range script {
		fmt.Printf("User: %s\n", msg)
		out, err := a.Planner.HandleTurn(ctx, planner.TurnInput{Key: key, Message: msg})
		if err != nil {
			l.Fatal().Err(err).Msg("turn")
		}
		fmt.Printf("Bot:  %s\n", out.Recommendation)
		for _, h := range out.Hotels {
			fmt.Printf("      🏨 %s %s %s\n", h.Name, h.Price, h.URL)
		}
		for _, f := range out.Foods {
			fmt.Printf("      🍽 %s (⭐ %.1f) %s\n", f.Name, f.Rating, f.MapURL)
		}
		if *showContext {
			b, _ := json.MarshalIndent(out.Context, "      ", "  ")
			fmt.Printf("      %s\n", b)
		}
		fmt.Println()
	}
}
