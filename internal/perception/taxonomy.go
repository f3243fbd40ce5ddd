package perception

import "bizpilot/internal/types"

// IntentDef names a specific intent under an agent domain together with the
// keywords that signal it. Keywords are matched as substrings of the
// normalized message, so short stems ("meet") also catch their longer forms
// ("meeting") and common multi-word phrasings score extra hits.
type IntentDef struct {
	Name     string
	Keywords []string
}

// DomainTaxonomy is the keyword corpus of one agent domain. Declaration
// order matters: it is the documented tie-break between equally confident
// intents in different domains.
type DomainTaxonomy struct {
	Domain   types.AgentDomain
	Keywords []string
	Intents  []IntentDef
}

// DefaultTaxonomy returns the built-in keyword corpus. The slice is fresh on
// every call so tests and config overrides can mutate their copy safely; the
// matcher treats whatever it is given as immutable.
func DefaultTaxonomy() []DomainTaxonomy {
	return []DomainTaxonomy{
		{
			Domain: types.AgentExecutiveAssistant,
			Keywords: []string{
				"schedule", "meeting", "meet", "calendar", "appointment",
				"remind", "reminder", "email", "inbox", "reply",
				"tomorrow", "today", "agenda", "task", "availability",
			},
			Intents: []IntentDef{
				{Name: "schedule_meeting", Keywords: []string{
					"schedule", "meeting", "meet", "schedule a meeting",
					"meeting with", "set up a meeting", "book a meeting",
					"calendar", "appointment", "book",
				}},
				{Name: "send_email", Keywords: []string{
					"email", "send email", "send an email", "write an email",
					"draft an email", "reply to", "inbox",
				}},
				{Name: "set_reminder", Keywords: []string{
					"remind", "reminder", "set a reminder", "remind me",
					"don't forget", "follow up at",
				}},
				{Name: "check_calendar", Keywords: []string{
					"calendar", "what's on my calendar", "my schedule",
					"availability", "free time", "agenda",
				}},
			},
		},
		{
			Domain: types.AgentContent,
			Keywords: []string{
				"post", "caption", "content", "social", "instagram",
				"facebook", "linkedin", "twitter", "tiktok", "image",
				"photo", "write", "publish", "hashtag", "story",
			},
			Intents: []IntentDef{
				{Name: "generate_post", Keywords: []string{
					"post", "write a post", "create a post", "social post",
					"caption", "content", "social media",
				}},
				{Name: "generate_image", Keywords: []string{
					"image", "photo", "picture", "generate an image",
					"create an image", "graphic", "visual",
				}},
				{Name: "publish_post", Keywords: []string{
					"publish", "post it", "share it", "post to", "publish to",
					"put it on",
				}},
			},
		},
		{
			Domain: types.AgentTransactionCoordinator,
			Keywords: []string{
				"transaction", "contract", "closing", "escrow", "deadline",
				"document", "paperwork", "deal", "offer", "signature",
				"disclosure", "inspection",
			},
			Intents: []IntentDef{
				{Name: "create_document", Keywords: []string{
					"document", "contract", "draft a contract", "paperwork",
					"create a document", "disclosure", "generate a document",
				}},
				{Name: "track_deadline", Keywords: []string{
					"deadline", "closing", "due date", "closing date",
					"escrow", "timeline", "inspection",
				}},
				{Name: "transaction_status", Keywords: []string{
					"status", "transaction", "deal", "where are we",
					"progress", "update on",
				}},
			},
		},
		{
			Domain: types.AgentLeads,
			Keywords: []string{
				"lead", "leads", "prospect", "follow up", "pipeline",
				"contact", "client", "nurture", "outreach", "cold",
				"referral", "conversion",
			},
			Intents: []IntentDef{
				{Name: "follow_up_lead", Keywords: []string{
					"follow up", "follow-up", "reach out", "check in with",
					"nurture", "outreach", "touch base",
				}},
				{Name: "qualify_lead", Keywords: []string{
					"qualify", "qualified", "score", "hot lead", "warm lead",
					"prioritize",
				}},
				{Name: "add_lead", Keywords: []string{
					"add a lead", "new lead", "add contact", "new prospect",
					"new contact", "import",
				}},
			},
		},
		{
			Domain: types.AgentAdvisor,
			Keywords: []string{
				"advice", "advise", "strategy", "market", "pricing", "price",
				"recommend", "should i", "trend", "comparison", "analysis",
				"forecast",
			},
			Intents: []IntentDef{
				{Name: "market_advice", Keywords: []string{
					"market", "trend", "market analysis", "forecast",
					"what's the market", "conditions",
				}},
				{Name: "pricing_advice", Keywords: []string{
					"price", "pricing", "how much", "list price", "valuation",
					"worth",
				}},
				{Name: "strategy_advice", Keywords: []string{
					"strategy", "plan", "approach", "recommend", "should i",
					"best way",
				}},
			},
		},
	}
}
