package mandrillx

import (
	"maps"

	"github.com/Abraxas-365/mandrillx/pkg/ptrx"
)

// Options holds the Mandrill-specific attributes of a message. A nil pointer,
// slice or map means "unset" and the key is left out of the payload so the
// account defaults apply; an empty slice or map is treated the same way.
type Options struct {
	FromName                *string                   `json:"from_name,omitempty" yaml:"from_name,omitempty"`
	Important               *bool                     `json:"important,omitempty" yaml:"important,omitempty"`
	TrackOpens              *bool                     `json:"track_opens,omitempty" yaml:"track_opens,omitempty"`
	TrackClicks             *bool                     `json:"track_clicks,omitempty" yaml:"track_clicks,omitempty"`
	AutoText                *bool                     `json:"auto_text,omitempty" yaml:"auto_text,omitempty"`
	AutoHTML                *bool                     `json:"auto_html,omitempty" yaml:"auto_html,omitempty"`
	InlineCSS               *bool                     `json:"inline_css,omitempty" yaml:"inline_css,omitempty"`
	URLStripQS              *bool                     `json:"url_strip_qs,omitempty" yaml:"url_strip_qs,omitempty"`
	TrackingDomain          *string                   `json:"tracking_domain,omitempty" yaml:"tracking_domain,omitempty"`
	SigningDomain           *string                   `json:"signing_domain,omitempty" yaml:"signing_domain,omitempty"`
	ReturnPathDomain        *string                   `json:"return_path_domain,omitempty" yaml:"return_path_domain,omitempty"`
	MergeLanguage           *string                   `json:"merge_language,omitempty" yaml:"merge_language,omitempty"`
	Tags                    []string                  `json:"tags,omitempty" yaml:"tags,omitempty"`
	PreserveRecipients      *bool                     `json:"preserve_recipients,omitempty" yaml:"preserve_recipients,omitempty"`
	ViewContentLink         *bool                     `json:"view_content_link,omitempty" yaml:"view_content_link,omitempty"`
	Subaccount              *string                   `json:"subaccount,omitempty" yaml:"subaccount,omitempty"`
	GoogleAnalyticsDomains  []string                  `json:"google_analytics_domains,omitempty" yaml:"google_analytics_domains,omitempty"`
	GoogleAnalyticsCampaign *string                   `json:"google_analytics_campaign,omitempty" yaml:"google_analytics_campaign,omitempty"`
	Metadata                map[string]any            `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	GlobalMergeVars         map[string]any            `json:"global_merge_vars,omitempty" yaml:"global_merge_vars,omitempty"`
	MergeVars               map[string]map[string]any `json:"merge_vars,omitempty" yaml:"merge_vars,omitempty"`
	RecipientMetadata       map[string]map[string]any `json:"recipient_metadata,omitempty" yaml:"recipient_metadata,omitempty"`

	// Async and IPPool are sent outside the message object.
	Async  *bool   `json:"async,omitempty" yaml:"async,omitempty"`
	IPPool *string `json:"ip_pool,omitempty" yaml:"ip_pool,omitempty"`
	SendAt *SendAt `json:"send_at,omitempty" yaml:"send_at,omitempty"`

	TemplateName    *string        `json:"template_name,omitempty" yaml:"template_name,omitempty"`
	TemplateContent map[string]any `json:"template_content,omitempty" yaml:"template_content,omitempty"`
	// UseTemplateFrom and UseTemplateSubject leave from and subject to the
	// stored template.
	UseTemplateFrom    bool `json:"use_template_from,omitempty" yaml:"use_template_from,omitempty"`
	UseTemplateSubject bool `json:"use_template_subject,omitempty" yaml:"use_template_subject,omitempty"`
}

// Overlay returns o layered over defaults: every attribute set on o wins,
// unset attributes fall back to defaults. GlobalMergeVars are merged key by
// key. Neither input is modified.
func (o Options) Overlay(defaults Options) Options {
	out := o

	out.FromName = ptrx.Coalesce(o.FromName, defaults.FromName)
	out.Important = ptrx.Coalesce(o.Important, defaults.Important)
	out.TrackOpens = ptrx.Coalesce(o.TrackOpens, defaults.TrackOpens)
	out.TrackClicks = ptrx.Coalesce(o.TrackClicks, defaults.TrackClicks)
	out.AutoText = ptrx.Coalesce(o.AutoText, defaults.AutoText)
	out.AutoHTML = ptrx.Coalesce(o.AutoHTML, defaults.AutoHTML)
	out.InlineCSS = ptrx.Coalesce(o.InlineCSS, defaults.InlineCSS)
	out.URLStripQS = ptrx.Coalesce(o.URLStripQS, defaults.URLStripQS)
	out.TrackingDomain = ptrx.Coalesce(o.TrackingDomain, defaults.TrackingDomain)
	out.SigningDomain = ptrx.Coalesce(o.SigningDomain, defaults.SigningDomain)
	out.ReturnPathDomain = ptrx.Coalesce(o.ReturnPathDomain, defaults.ReturnPathDomain)
	out.MergeLanguage = ptrx.Coalesce(o.MergeLanguage, defaults.MergeLanguage)
	out.PreserveRecipients = ptrx.Coalesce(o.PreserveRecipients, defaults.PreserveRecipients)
	out.ViewContentLink = ptrx.Coalesce(o.ViewContentLink, defaults.ViewContentLink)
	out.Subaccount = ptrx.Coalesce(o.Subaccount, defaults.Subaccount)
	out.GoogleAnalyticsCampaign = ptrx.Coalesce(o.GoogleAnalyticsCampaign, defaults.GoogleAnalyticsCampaign)
	out.Async = ptrx.Coalesce(o.Async, defaults.Async)
	out.IPPool = ptrx.Coalesce(o.IPPool, defaults.IPPool)

	if o.Tags == nil {
		out.Tags = defaults.Tags
	}
	if o.GoogleAnalyticsDomains == nil {
		out.GoogleAnalyticsDomains = defaults.GoogleAnalyticsDomains
	}
	if o.Metadata == nil {
		out.Metadata = defaults.Metadata
	}

	if defaults.GlobalMergeVars != nil {
		merged := maps.Clone(defaults.GlobalMergeVars)
		maps.Copy(merged, o.GlobalMergeVars)
		out.GlobalMergeVars = merged
	}

	return out
}
