package constants

const (
	ViewData          = "view_data"
	Trade             = "trade"
	RequestFunds      = "request_funds"
	Invest            = "invest"
	ReviewFunding     = "review_funding"
	ManagePlans       = "manage_plans"
	ReviewEligibility = "review_eligibility"
	RunMaintenance    = "run_maintenance"
	AssignRole        = "assign_role"
)
