package presentation

import "time"

const TipInterval = 2500 * time.Millisecond

var scoutingTips = []string{
	"attend industry meetups and demo days to discover promising startups early.",
	"ensure the startup is solving a real pain point before diving in deeper.",
	"map out the landscape to spot the next unicorn in the making.",
	"follow platforms like Crunchbase or AngelList to see which startups are raising capital.",
	"monitor Twitter and LinkedIn for chatter around emerging companies.",
	"look for founders with proven track records and complementary skill sets.",
	"big markets breed unicorns, so seek startups tackling billion-dollar industries.",
	"monthly active users, revenue growth, and churn rates reveal true momentum.",
	"hands-on trials uncover which solutions have that magical unicorn spark.",
	"subscribe to newsletters like TechCrunch or Product Hunt to spot early-stage gems.",
	"angel and VC communities often share insider tips on potential unicorns.",
	"acquisitions and IPO filings can signal which startups might join the unicorn club.",
	"maintain open communication channels with founders to help their growth.",
	"advise startups to balance rapid growth with operational stability to avoid flaming out.",
	"recognizing progress, no matter how small, can keep teams motivated toward unicorn status.",
}

// LoadingTip returns the tip shown after elapsed time on the loading screen.
func LoadingTip(elapsed time.Duration) string {
	if elapsed < 0 {
		elapsed = 0
	}
	idx := int(elapsed/TipInterval) % len(scoutingTips)
	return scoutingTips[idx]
}
