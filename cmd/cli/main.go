package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"leadcapture/internal/database"
	"leadcapture/internal/platform/intake"
	"leadcapture/internal/platform/lead"
)

const defaultAPIBaseURL = "http://localhost:8000/api"

var (
	apiBaseURL string
	apiToken   string
)

type ResponseError struct {
	Message string `json:"message"`
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

var apiServiceBase = func() *resty.Client {
	client := resty.New().
		SetBaseURL(apiBaseURL).
		SetHeader("Accept", "application/json").
		SetError(&ResponseError{}).
		OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
			if resp.StatusCode() >= 400 {
				if e, ok := resp.Error().(*ResponseError); ok && e.Message != "" {
					return errors.New(e.Message)
				}
				return fmt.Errorf("request failed with status %d", resp.StatusCode())
			}

			return nil
		})

	if apiToken != "" {
		client.SetAuthToken(apiToken)
	}
	return client
}

var rootCmd = &cobra.Command{
	Use:   "leadcapture",
	Short: "Lead capture CLI",
}

var loginCmd = &cobra.Command{
	Use:   "login <email> <password>",
	Short: "Sign in and print an access token",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		type loginData struct {
			User  database.User `json:"user"`
			Token string        `json:"token"`
		}

		resp, err := apiServiceBase().R().
			SetBody(map[string]string{
				"email":    args[0],
				"password": args[1],
			}).
			SetResult(&envelope[loginData]{}).
			Post("/login")

		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		data := resp.Result().(*envelope[loginData]).Data

		fmt.Println("User ID :", data.User.ID)
		fmt.Println("Role    :", data.User.Role)
		fmt.Println("Token   :", data.Token)
	},
}

var submitLeadCmd = &cobra.Command{
	Use:   "submit-lead",
	Short: "Submit a loan application",
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		amount, _ := flags.GetFloat64("amount")
		loanType, _ := flags.GetString("type")
		name, _ := flags.GetString("name")
		email, _ := flags.GetString("email")
		phone, _ := flags.GetString("phone")
		userID, _ := flags.GetString("user-id")

		body := map[string]any{
			"loanAmount": amount,
			"loanType":   loanType,
			"name":       name,
			"email":      email,
			"phone":      phone,
		}
		if userID != "" {
			body["userId"] = userID
		}

		resp, err := apiServiceBase().R().
			SetBody(body).
			SetResult(&envelope[intake.Result]{}).
			Post("/submit-lead")

		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		result := resp.Result().(*envelope[intake.Result])

		fmt.Println(result.Message)
		fmt.Println("CRM Lead ID :", result.Data.LeadID)
		fmt.Println("Account ID  :", result.Data.AccountID)
		fmt.Println("User ID     :", result.Data.UserID)
		fmt.Println("First time  :", result.Data.IsFirstTimeUser)
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative queries",
}

var adminUsersCmd = &cobra.Command{
	Use:   "users",
	Short: "List users",
	Run: func(cmd *cobra.Command, args []string) {
		role, _ := cmd.Flags().GetString("role")
		limit, _ := cmd.Flags().GetInt("limit")

		req := apiServiceBase().R().
			SetQueryParam("limit", strconv.Itoa(limit)).
			SetResult(&envelope[[]database.User]{})
		if role != "" {
			req.SetQueryParam("role", role)
		}

		resp, err := req.Get("/admin/users")
		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		for _, u := range resp.Result().(*envelope[[]database.User]).Data {
			fmt.Printf("%s  %-6s  active=%-5t  %s <%s>\n", u.ID, u.Role, u.IsActive, u.Name, u.Email)
		}
	},
}

var adminLeadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List leads",
	Run: func(cmd *cobra.Command, args []string) {
		status, _ := cmd.Flags().GetString("status")
		loanType, _ := cmd.Flags().GetString("type")
		limit, _ := cmd.Flags().GetInt("limit")

		req := apiServiceBase().R().
			SetQueryParam("limit", strconv.Itoa(limit)).
			SetResult(&envelope[[]database.Lead]{})
		if status != "" {
			req.SetQueryParam("status", status)
		}
		if loanType != "" {
			req.SetQueryParam("loanType", loanType)
		}

		resp, err := req.Get("/admin/leads")
		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		for _, l := range resp.Result().(*envelope[[]database.Lead]).Data {
			fmt.Printf("%s  %-8s  %12.2f  score=%-3d  %s\n", l.ID, l.LoanType, l.LoanAmount, l.LeadScore, l.Status)
		}
	},
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show lead statistics",
	Run: func(cmd *cobra.Command, args []string) {
		type statsData struct {
			lead.Stats
			TotalUsers    int64 `json:"totalUsers"`
			TotalAccounts int64 `json:"totalAccounts"`
		}

		resp, err := apiServiceBase().R().
			SetResult(&envelope[statsData]{}).
			Get("/admin/stats")

		if err != nil {
			fmt.Println("Error:", err)
			return
		}

		stats := resp.Result().(*envelope[statsData]).Data

		fmt.Println("Leads          :", stats.TotalLeads)
		fmt.Printf("Average amount : %.2f\n", stats.AvgLoanAmount)
		fmt.Println("Users          :", stats.TotalUsers)
		fmt.Println("Accounts       :", stats.TotalAccounts)
		fmt.Println("\nBy status")
		for _, s := range stats.StatusBreakdown {
			fmt.Printf("  - %-18s %5d  total=%.2f  avg score=%.1f\n", s.Status, s.Count, s.TotalAmount, s.AvgScore)
		}
	},
}

func main() {
	submitLeadCmd.Flags().Float64("amount", 0, "Loan amount")
	submitLeadCmd.Flags().String("type", "", "Loan type (Personal, Business, Mortgage)")
	submitLeadCmd.Flags().String("name", "", "Applicant name")
	submitLeadCmd.Flags().String("email", "", "Applicant email")
	submitLeadCmd.Flags().String("phone", "", "Applicant phone")
	submitLeadCmd.Flags().String("user-id", "", "Existing user id; the user must own --email")

	adminUsersCmd.Flags().String("role", "", "Filter by role")
	adminUsersCmd.Flags().Int("limit", 50, "Maximum number of rows")
	adminLeadsCmd.Flags().String("status", "", "Filter by status")
	adminLeadsCmd.Flags().String("type", "", "Filter by loan type")
	adminLeadsCmd.Flags().Int("limit", 50, "Maximum number of rows")

	adminCmd.AddCommand(adminUsersCmd)
	adminCmd.AddCommand(adminLeadsCmd)
	adminCmd.AddCommand(adminStatsCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(submitLeadCmd)
	rootCmd.AddCommand(adminCmd)

	baseURL := os.Getenv("LC_API_URL")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}

	rootCmd.PersistentFlags().StringVarP(&apiBaseURL, "url", "u", baseURL, "API base URL")
	rootCmd.PersistentFlags().StringVarP(&apiToken, "token", "t", os.Getenv("LC_API_TOKEN"), "Bearer token")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
