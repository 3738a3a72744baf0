package seed

import (
	"math"
	"time"

	"crmcore/internal/timeutil"
	"crmcore/pkg/domain"
)

// RevenueDays is the length of the demo revenue series.
const RevenueDays = 365

// Demo builds the sample workspace used by local development. All dates are
// relative to now so the dashboard always has recent data.
func Demo(now time.Time) domain.Snapshot {
	ago := func(days, hour, minute int) time.Time {
		d := timeutil.AddDays(now, -days)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, now.Location())
	}
	ahead := func(days, hour int) time.Time { return ago(-days, hour, 0) }
	ptr := func(t time.Time) *time.Time { return &t }

	leads := []domain.Lead{
		{
			ID: "lead_1", Name: "Morgan Price", Business: "Price Dental Studio",
			Email: "morgan@pricedental.com", Phone: "(555) 104-2233",
			Status: "Proposal Sent", Source: domain.SourceWebsite, Owner: "Kyle",
			EstimatedValue: 12000, LastContacted: ptr(ago(2, 14, 0)),
			NextStep: "Follow up on scope feedback", CreatedAt: ago(18, 10, 0),
			Notes: "Needs a full redesign with appointment integration.",
			Timeline: []domain.TimelineEntry{
				{ID: "t1", CreatedAt: ago(18, 10, 0), Message: "Lead submitted via website form", Type: domain.TimelineSystem},
				{ID: "t2", CreatedAt: ago(15, 10, 0), Message: "Discovery call completed", Type: domain.TimelineNote},
				{ID: "t3", CreatedAt: ago(3, 10, 0), Message: "Proposal sent with 2 package options", Type: domain.TimelineStatus},
			},
			Files: []domain.FileLink{{ID: "f1", Label: "Proposal PDF", URL: "https://example.com/proposal-pricedental"}},
		},
		{
			ID: "lead_2", Name: "Ava Bennett", Business: "Bennett Family Law",
			Email: "ava@bennettlaw.com", Phone: "(555) 310-8877",
			Status: "Negotiation", Source: domain.SourceReferral, Owner: "Alex",
			EstimatedValue: 18500, LastContacted: ptr(ago(1, 11, 0)),
			NextStep: "Finalize maintenance scope", CreatedAt: ago(24, 10, 0),
			Notes: "Interested in SEO + copywriting retainers.",
			Timeline: []domain.TimelineEntry{
				{ID: "t4", CreatedAt: ago(24, 10, 0), Message: "Referral from existing client", Type: domain.TimelineSystem},
				{ID: "t5", CreatedAt: ago(20, 10, 0), Message: "Intro call complete", Type: domain.TimelineNote},
				{ID: "t6", CreatedAt: ago(6, 10, 0), Message: "Moved to negotiation", Type: domain.TimelineStatus},
			},
			Files: []domain.FileLink{},
		},
		{
			ID: "lead_3", Name: "Noah Ortiz", Business: "Ortiz Landscaping",
			Email: "noah@ortizlandscaping.com", Phone: "(555) 909-4477",
			Status: "New", Source: domain.SourceSocial, Owner: "Kyle",
			EstimatedValue: 6000, NextStep: "Send intro email", CreatedAt: ago(1, 9, 0),
			Notes: "Wants a lead-gen landing page first.",
			Timeline: []domain.TimelineEntry{
				{ID: "t7", CreatedAt: ago(1, 9, 0), Message: "Lead captured from Instagram ad", Type: domain.TimelineSystem},
			},
			Files: []domain.FileLink{},
		},
		{
			ID: "lead_4", Name: "Harper Lee", Business: "Lee Wellness Co.",
			Email: "hello@leewellness.co", Phone: "(555) 880-1122",
			Status: domain.StatusWon, Source: domain.SourceWebsite, Owner: "Jordan",
			EstimatedValue: 14500, LastContacted: ptr(ago(8, 10, 0)),
			NextStep: "Kickoff project", CreatedAt: ago(42, 10, 0),
			Notes: "Closed with growth retainer upsell.",
			Timeline: []domain.TimelineEntry{
				{ID: "t8", CreatedAt: ago(42, 10, 0), Message: "Discovery scheduled", Type: domain.TimelineStatus},
				{ID: "t9", CreatedAt: ago(28, 10, 0), Message: "Proposal sent", Type: domain.TimelineStatus},
				{ID: "t10", CreatedAt: ago(12, 10, 0), Message: "Contract signed", Type: domain.TimelineStatus},
			},
			Files: []domain.FileLink{{ID: "f2", Label: "Contract", URL: "https://example.com/contract-lee"}},
		},
		{
			ID: "lead_5", Name: "Ethan Brooks", Business: "Brooks CPA Group",
			Email: "ethan@brookscpa.com", Phone: "(555) 500-7764",
			Status: domain.StatusLost, Source: domain.SourceColdOutreach, Owner: "Alex",
			EstimatedValue: 9500, LastContacted: ptr(ago(30, 10, 0)),
			NextStep: "Revisit next quarter", CreatedAt: ago(55, 10, 0),
			Notes: "Budget frozen for this quarter.",
			Timeline: []domain.TimelineEntry{
				{ID: "t11", CreatedAt: ago(55, 10, 0), Message: "Outbound email responded", Type: domain.TimelineSystem},
				{ID: "t12", CreatedAt: ago(48, 10, 0), Message: "Lost due to budget", Type: domain.TimelineStatus},
			},
			Files: []domain.FileLink{},
		},
		{
			ID: "lead_6", Name: "Sofia Grant", Business: "Grant Interiors",
			Email: "sofia@grantinteriors.com", Phone: "(555) 246-6001",
			Status: "Discovery Scheduled", Source: domain.SourcePartner, Owner: "Kyle",
			EstimatedValue: 13200, LastContacted: ptr(ago(4, 10, 0)),
			NextStep: "Prepare discovery agenda", CreatedAt: ago(9, 10, 0),
			Notes: "Portfolio-heavy site with bookings.",
			Timeline: []domain.TimelineEntry{
				{ID: "t13", CreatedAt: ago(9, 10, 0), Message: "Partner referral submitted", Type: domain.TimelineSystem},
				{ID: "t14", CreatedAt: ago(4, 10, 0), Message: "Discovery booked for next Tuesday", Type: domain.TimelineTask},
			},
			Files: []domain.FileLink{},
		},
		{
			ID: "lead_7", Name: "Liam Reed", Business: "Reed Fitness Club",
			Email: "liam@reedfit.com", Phone: "(555) 240-9930",
			Status: "Contacted", Source: domain.SourceWebsite, Owner: "Jordan",
			EstimatedValue: 7800, LastContacted: ptr(ago(2, 10, 0)),
			NextStep: "Book discovery call", CreatedAt: ago(6, 10, 0),
			Notes: "Needs membership portal integration.",
			Timeline: []domain.TimelineEntry{
				{ID: "t15", CreatedAt: ago(6, 10, 0), Message: "Lead created", Type: domain.TimelineSystem},
				{ID: "t16", CreatedAt: ago(2, 10, 0), Message: "Intro call requested", Type: domain.TimelineNote},
			},
			Files: []domain.FileLink{},
		},
	}

	clients := []domain.Client{
		{
			ID: "client_1", Name: "Lee Wellness Co.", ContactName: "Harper Lee",
			Email: "hello@leewellness.co", Phone: "(555) 880-1122",
			Websites: []string{"https://leewellness.co"}, Industry: "Health & Wellness",
			CreatedAt: ago(11, 10, 0), Notes: "Monthly CRO and content updates.",
		},
		{
			ID: "client_2", Name: "Northstar Dental", ContactName: "Dr. Jasmine Patel",
			Email: "jpatel@northstardental.com", Phone: "(555) 293-1188",
			Websites: []string{"https://northstardental.com", "https://book.northstardental.com"},
			Industry: "Dental", CreatedAt: ago(90, 10, 0), Notes: "Retainer client with quarterly campaigns.",
		},
		{
			ID: "client_3", Name: "Baker Home Realty", ContactName: "Mason Baker",
			Email: "mason@bakerhome.com", Phone: "(555) 782-2219",
			Websites: []string{"https://bakerhome.com"}, Industry: "Real Estate",
			CreatedAt: ago(150, 10, 0), Notes: "Brand refresh completed last quarter.",
		},
	}

	projects := []domain.Project{
		{
			ID: "project_1", ClientID: "client_1", Name: "Growth Site Redesign",
			Status: domain.ProjectInProgress, StartDate: ago(10, 10, 0), Deadline: ahead(28, 10),
			WebsiteURL: "https://staging.leewellness.co", Notes: "Homepage + service pages in sprint 1.",
			Value: 14500, Tags: []string{"Web Design", "SEO"},
		},
		{
			ID: "project_2", ClientID: "client_2", Name: "Patient Booking Funnel",
			Status: domain.ProjectReview, StartDate: ago(34, 10, 0), Deadline: ahead(6, 10),
			WebsiteURL: "https://preview.northstardental.com", Notes: "Awaiting final copy approval.",
			Value: 9800, Tags: []string{"CRO", "Landing Pages"},
		},
		{
			ID: "project_3", ClientID: "client_3", Name: "Neighborhood Showcase",
			Status: domain.ProjectComplete, StartDate: ago(80, 10, 0), Deadline: ago(16, 10, 0),
			WebsiteURL: "https://bakerhome.com/neighborhoods", Notes: "Delivered ahead of schedule.",
			Value: 7200, Tags: []string{"CMS", "Content"},
		},
	}

	tasks := []domain.Task{
		{
			ID: "task_1", Title: "Follow up on Price Dental proposal", DueDate: ahead(1, 11),
			Priority: domain.PriorityHigh, Status: domain.TaskTodo,
			RelatedType: domain.RelatedLead, RelatedID: "lead_1",
			Description: "Ask if they prefer growth or conversion package.",
		},
		{
			ID: "task_2", Title: "Finalize service scope for Bennett Law", DueDate: ahead(2, 15),
			Priority: domain.PriorityHigh, Status: domain.TaskInProgress,
			RelatedType: domain.RelatedLead, RelatedID: "lead_2",
			Description: "Update estimate with optional copywriting add-on.",
		},
		{
			ID: "task_3", Title: "Prepare discovery deck for Grant Interiors", DueDate: ahead(3, 9),
			Priority: domain.PriorityMedium, Status: domain.TaskTodo,
			RelatedType: domain.RelatedLead, RelatedID: "lead_6",
			Description: "Gather references and sitemap options.",
		},
		{
			ID: "task_4", Title: "Send scheduling link to Reed Fitness", DueDate: ahead(0, 13),
			Priority: domain.PriorityMedium, Status: domain.TaskTodo,
			RelatedType: domain.RelatedLead, RelatedID: "lead_7",
			Description: "Provide 3 available windows for discovery.",
		},
		{
			ID: "task_5", Title: "Kickoff Lee Wellness project", DueDate: ahead(0, 16),
			Priority: domain.PriorityHigh, Status: domain.TaskInProgress,
			RelatedType: domain.RelatedProject, RelatedID: "project_1",
			Description: "Review goals, KPIs, and tech constraints.",
		},
		{
			ID: "task_6", Title: "Review QA feedback on Northstar funnel", DueDate: ahead(5, 10),
			Priority: domain.PriorityLow, Status: domain.TaskTodo,
			RelatedType: domain.RelatedProject, RelatedID: "project_2",
			Description: "Resolve final form validation notes.",
		},
	}

	activity := []domain.ActivityItem{
		{ID: "act_1", CreatedAt: ago(0, 9, 12), Actor: "Kyle", Message: "Moved Grant Interiors to Discovery Scheduled", EntityType: domain.EntityLead, EntityID: "lead_6"},
		{ID: "act_2", CreatedAt: ago(0, 8, 40), Actor: "Kyle", Message: "Created task: Send scheduling link to Reed Fitness", EntityType: domain.EntityTask, EntityID: "task_4"},
		{ID: "act_3", CreatedAt: ago(1, 15, 0), Actor: "Alex", Message: "Updated proposal scope for Bennett Family Law", EntityType: domain.EntityLead, EntityID: "lead_2"},
		{ID: "act_4", CreatedAt: ago(2, 11, 30), Actor: "Jordan", Message: "Started project kickoff for Lee Wellness Co.", EntityType: domain.EntityProject, EntityID: "project_1"},
		{ID: "act_5", CreatedAt: ago(3, 16, 45), Actor: "Kyle", Message: "Sent proposal to Price Dental Studio", EntityType: domain.EntityLead, EntityID: "lead_1"},
	}

	return domain.Snapshot{
		LeadStatuses: domain.DefaultLeadStatuses(),
		Leads:        leads,
		Clients:      clients,
		Projects:     projects,
		Tasks:        tasks,
		Activity:     activity,
		Revenue:      DemoRevenue(now),
	}
}

// DemoRevenue returns RevenueDays daily samples ending at now, oldest first.
// The curve combines a slow seasonal swing, linear growth and a nine-day ripple.
func DemoRevenue(now time.Time) []domain.RevenuePoint {
	points := make([]domain.RevenuePoint, RevenueDays)
	for i := range points {
		amount := 900 + math.Sin(float64(i)/23)*260 + float64(i*7) + float64((i%9)*42)
		points[i] = domain.RevenuePoint{
			Date:   timeutil.AddDays(now, -(RevenueDays - 1 - i)),
			Amount: math.Max(0, math.Round(amount)),
		}
	}
	return points
}
