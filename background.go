package main

import (
	"time"

	"github.com/glazed-darnut/VerifyBot/service"
)

func GoBackgrounds() {
	// flush cached guild records every minute and evict the idle ones
	go func() {
		tick := time.Tick(60 * time.Second)
		for now := range tick {
			service.GetStore().Sweep(now)
		}
	}()

	// prune lapsed pending verifications across all stored guilds
	go func() {
		tick := time.Tick(10 * time.Minute)
		for range tick {
			service.GetStore().CleanStalePending()
		}
	}()
}
