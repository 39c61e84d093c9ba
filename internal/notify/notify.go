// Package notify builds and queues the follow-up text message sent after a
// completed call. The webhook process publishes to RabbitMQ; the delivery
// worker consumes the queue and hands the message to the SMS gateway.
package notify

import (
	"fmt"

	"github.com/lhawkeye71/ai-phone-agent/internal/steak"
)

// RenderSteakGuide builds the message body for a completed record: the
// cooking numbers for the caller's doneness, with their name and favorite
// color worked in so the text is unmistakably theirs.
func RenderSteakGuide(name, favoriteColor string, d steak.Doneness) string {
	p, ok := steak.ProfileFor(d)
	if !ok {
		// The dialogue only completes with a known doneness, but don't let a
		// bad stored value produce a half-rendered text.
		return fmt.Sprintf("Hi %s, thanks for calling the Hawkeye Grill hotline! Your personal steak guide is on its way.", name)
	}
	minutes := int(p.TimePerSide.Minutes())
	return fmt.Sprintf(
		"Hi %s, here's your %s steak guide: sear about %d minutes per side and pull it off the heat at %d F. Serve it on your best %s plate. Enjoy!",
		name, d, minutes, p.TargetFahrenheit, favoriteColor,
	)
}
