package prompts

// Built-in template names.
const (
	CodeGenerate = "code.generate"
	CodeReview   = "code.review"
	CodeOptimize = "code.optimize"

	RouteClassify  = "route.classify"
	RouteTechnical = "route.technical"
	RouteBilling   = "route.billing"
	RouteGeneral   = "route.general"

	SentimentClassify = "sentiment.classify"

	VoteReview = "vote.review"

	ChainCopy      = "chain.copy"
	ChainTranslate = "chain.translate"
)

var builtins = []Template{
	{
		Name: CodeGenerate,
		Vars: []string{"task"},
		Text: `Write clean, efficient code for this task:

Task: {{.task}}

Provide working code with proper structure and comments.
Focus on correctness, readability, and efficiency.
Report the programming language you used and rate the solution's complexity as low, medium or high.`,
	},
	{
		Name: CodeReview,
		Vars: []string{"task", "code"},
		Text: `Review this code thoroughly for a software development project:

Original Task: {{.task}}
Code to Review:
{{.code}}

Evaluate:
- Functionality: Does it solve the problem correctly? (score 1-10)
- Quality: Is it well-structured, readable, maintainable? (score 1-10)
- Performance: Is it efficient and optimized? (score 1-10)
- Best practices: Does it follow coding standards?

Provide specific issues and actionable suggestions for improvement.
Set is_production_ready to true only if the code is ready for production use as written.`,
	},
	{
		Name: CodeOptimize,
		Vars: []string{"task", "code", "review"},
		Text: `Optimize this code based on the review feedback:

Original Task: {{.task}}
Current Code:
{{.code}}
Review Feedback: {{.review}}

Improve the code addressing the reviewer's suggestions.
Focus on fixing issues while maintaining functionality.
List the specific improvements you made and the expected performance impact.`,
	},
	{
		Name: RouteClassify,
		Vars: []string{"query"},
		Text: `Classify this customer service query into categories:
- technical: password, login, bugs, features, app issues
- billing: payments, invoices, subscriptions, charges, pricing
- general: general questions, how-to, information, features
- refund: returns, refunds, cancellations, money back

Also assess complexity: simple, medium, complex

Customer Query: {{.query}}

Provide classification with a confidence score between 0 and 1.`,
	},
	{
		Name: RouteTechnical,
		Vars: []string{"query"},
		Text: `You are a technical support specialist with expertise in troubleshooting.
Provide detailed technical help with clear step-by-step solutions.
Focus on practical troubleshooting steps the user can follow.

Technical Issue: {{.query}}

Provide solution and actionable steps.`,
	},
	{
		Name: RouteBilling,
		Vars: []string{"query"},
		Text: `You are a billing specialist who handles payment and subscription questions.
Explain billing matters clearly and suggest specific next steps.
Be empathetic and provide actionable guidance.

Billing Question: {{.query}}

Provide clear explanation and next action for customer.`,
	},
	{
		Name: RouteGeneral,
		Vars: []string{"query"},
		Text: `You are a friendly customer service representative providing general support.
Give helpful, informative answers with a positive tone.
Include useful resources or links when appropriate.

Customer Question: {{.query}}

Provide helpful answer and relevant resources.`,
	},
	{
		Name: SentimentClassify,
		Vars: []string{"review"},
		Text: `Analyze the sentiment of this product review:
Classify it as 'positive', 'negative', or 'neutral'.

Review Text:
{{.review}}`,
	},
	{
		Name: VoteReview,
		Vars: []string{"role", "focus", "code"},
		Text: `As {{.role}}, review this code for {{.focus}}:

{{.code}}

Report whether the code has a security vulnerability, the type of issue
(or "none"), and your confidence between 0 and 1.`,
	},
	{
		Name: ChainCopy,
		Vars: []string{"product"},
		Text: `Create compelling marketing copy for: {{.product}}

Include:
- Attention-grabbing headline
- Persuasive body text (2-3 sentences)
- Strong call to action

Make it engaging and sales-focused.`,
	},
	{
		Name: ChainTranslate,
		Vars: []string{"headline", "body", "cta", "language"},
		Text: `Translate this marketing copy to {{.language}}:

Headline: {{.headline}}
Body: {{.body}}
Call to Action: {{.cta}}

Maintain the marketing tone and persuasive impact.
Ensure cultural appropriateness for {{.language}} speakers.`,
	},
}
