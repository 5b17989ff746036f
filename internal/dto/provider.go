package dto

// ProviderFetchRequest is the input every platform provider accepts.
type ProviderFetchRequest struct {
	AccountRef  string
	AccessToken string
	StartDate   string
	EndDate     string
	Metrics     []string
	Dimensions  []string
}

// ProviderFetchResult is a provider report flattened into a table.
type ProviderFetchResult struct {
	Headers   []string
	Rows      [][]string
	TotalRows int
}
