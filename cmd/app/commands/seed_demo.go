package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	accountDomain "github.com/signmeup/signmeup/internal/account/domain"
	cryptoService "github.com/signmeup/signmeup/internal/crypto/service"
	apperrors "github.com/signmeup/signmeup/internal/errors"
	identityDomain "github.com/signmeup/signmeup/internal/identity/domain"
	userDomain "github.com/signmeup/signmeup/internal/user/domain"
	userUseCase "github.com/signmeup/signmeup/internal/user/usecase"
)

// Demo credentials. They are printed after seeding.
const (
	DemoEmail     = "demo@signmeup.com"
	DemoUsername  = "demo_user"
	DemoPassword  = "Demo123!pass"
	DemoMasterKey = "demo_master_key_123"
)

// DemoUsers looks up and registers users.
type DemoUsers interface {
	GetUserByEmail(ctx context.Context, email string) (*userDomain.User, error)
	RegisterUser(ctx context.Context, input userUseCase.RegisterUserInput) (*userDomain.User, error)
}

// DemoIdentities lists and creates identities.
type DemoIdentities interface {
	List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*identityDomain.Identity, error)
	Create(
		ctx context.Context,
		userID uuid.UUID,
		input *identityDomain.CreateIdentityInput,
	) (*identityDomain.DecryptedIdentity, error)
}

// DemoAccounts lists, creates and updates accounts.
type DemoAccounts interface {
	List(ctx context.Context, userID uuid.UUID, filter accountDomain.ListAccountsFilter) ([]*accountDomain.Account, error)
	Create(
		ctx context.Context,
		userID uuid.UUID,
		input *accountDomain.CreateAccountInput,
	) (*accountDomain.DecryptedAccount, error)
	Update(
		ctx context.Context,
		userID, accountID uuid.UUID,
		input *accountDomain.UpdateAccountInput,
	) (*accountDomain.DecryptedAccount, error)
}

// CipherFactory derives the field cipher of a master key.
type CipherFactory interface {
	New(masterSecret string) *cryptoService.EncryptionManager
}

// SeedDemoResult counts what a seed-demo run created.
type SeedDemoResult struct {
	UserID            string `json:"user_id"`
	UserCreated       bool   `json:"user_created"`
	IdentitiesCreated int    `json:"identities_created"`
	AccountsCreated   int    `json:"accounts_created"`
}

type demoIdentity struct {
	input    identityDomain.CreateIdentityInput
	accounts []demoAccount
}

type demoAccount struct {
	name            string
	url             string
	accountType     string
	username        string
	password        string
	notes           string
	signupCompleted bool
}

func ptr(s string) *string { return &s }

func demoIdentities() []demoIdentity {
	return []demoIdentity{
		{
			input: identityDomain.CreateIdentityInput{
				Name:        "Professional Identity",
				Description: "For business and professional accounts",
				Profile: identityDomain.Profile{
					FirstName:    "Alex",
					LastName:     "Johnson",
					Email:        "alex.johnson.pro@email.com",
					Phone:        ptr("+1-555-0123"),
					AddressLine1: ptr("123 Tech Street"),
					City:         ptr("San Francisco"),
					State:        ptr("CA"),
					ZipCode:      ptr("94105"),
					Country:      ptr("USA"),
					Profession:   ptr("Software Developer"),
					Company:      ptr("TechCorp Inc."),
					Bio:          ptr("Experienced software developer specializing in full-stack applications"),
				},
				PreferredUsernamePattern: "alex_johnson_dev",
			},
			accounts: []demoAccount{
				{"GitHub", "https://github.com", "development", "alex_johnson_dev", "SecurePass123!",
					"Used for software development projects", true},
				{"LinkedIn", "https://linkedin.com", "professional", "alex-johnson-dev", "LinkedInPass456!",
					"Professional networking account", true},
				{"StackOverflow", "https://stackoverflow.com", "development", "alex_johnson_dev", "StackPass202!",
					"Technical Q&A and problem solving", true},
			},
		},
		{
			input: identityDomain.CreateIdentityInput{
				Name:        "Personal Identity",
				Description: "For social media and personal accounts",
				Profile: identityDomain.Profile{
					FirstName:    "Alex",
					LastName:     "J",
					Email:        "alexj.personal@email.com",
					Phone:        ptr("+1-555-0124"),
					AddressLine1: ptr("California, USA"),
					Profession:   ptr("Tech Enthusiast"),
					Bio:          ptr("Tech enthusiast who loves exploring new technologies"),
				},
				PreferredUsernamePattern: "alexj_tech",
			},
			accounts: []demoAccount{
				{"Twitter", "https://twitter.com", "social", "alexj_tech", "TwitterPass789!",
					"Email verification pending", false},
				{"Reddit", "https://reddit.com", "social", "alexj_techie", "RedditPass101!",
					"Community discussions and tech news", true},
			},
		},
	}
}

// RunSeedDemo creates the demo user with two identities and five accounts. Anything
// that already exists, matched by email, identity name or website name, is left alone
// so the command can be run repeatedly.
func RunSeedDemo(
	ctx context.Context,
	users DemoUsers,
	identities DemoIdentities,
	accounts DemoAccounts,
	ciphers CipherFactory,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}

	var result SeedDemoResult

	user, err := users.GetUserByEmail(ctx, DemoEmail)
	switch {
	case apperrors.Is(err, userDomain.ErrUserNotFound):
		user, err = users.RegisterUser(ctx, userUseCase.RegisterUserInput{
			Username:  DemoUsername,
			Email:     DemoEmail,
			Password:  DemoPassword,
			MasterKey: DemoMasterKey,
			FirstName: "Demo",
			LastName:  "User",
		})
		if err != nil {
			return fmt.Errorf("failed to register demo user: %w", err)
		}
		result.UserCreated = true
	case err != nil:
		return fmt.Errorf("failed to look up demo user: %w", err)
	}
	result.UserID = user.ID.String()

	ctx = cryptoService.WithFieldCipher(ctx, ciphers.New(DemoMasterKey))

	existing, err := identities.List(ctx, user.ID, 0, 100)
	if err != nil {
		return fmt.Errorf("failed to list demo identities: %w", err)
	}
	identityIDs := make(map[string]uuid.UUID, len(existing))
	for _, identity := range existing {
		identityIDs[identity.Name] = identity.ID
	}

	for _, seed := range demoIdentities() {
		identityID, ok := identityIDs[seed.input.Name]
		if !ok {
			input := seed.input
			created, err := identities.Create(ctx, user.ID, &input)
			if err != nil {
				return fmt.Errorf("failed to create identity %q: %w", seed.input.Name, err)
			}
			identityID = created.ID
			result.IdentitiesCreated++
		}

		n, err := seedAccounts(ctx, accounts, user.ID, identityID, seed.input.Profile.Email, seed.accounts)
		if err != nil {
			return err
		}
		result.AccountsCreated += n
	}

	logger.Info("demo data seeded",
		slog.String("user_id", result.UserID),
		slog.Bool("user_created", result.UserCreated),
		slog.Int("identities_created", result.IdentitiesCreated),
		slog.Int("accounts_created", result.AccountsCreated),
	)

	return writeOutput(writer, format, result, func(w io.Writer) {
		if result.UserCreated {
			_, _ = fmt.Fprintf(w, "Created demo user %s\n", DemoEmail)
		} else {
			_, _ = fmt.Fprintf(w, "Demo user %s already exists\n", DemoEmail)
		}
		_, _ = fmt.Fprintf(w, "Created %d identities and %d account(s)\n",
			result.IdentitiesCreated, result.AccountsCreated)
		_, _ = fmt.Fprintf(w, "Log in with password %q and master key %q\n", DemoPassword, DemoMasterKey)
	})
}

func seedAccounts(
	ctx context.Context,
	accounts DemoAccounts,
	userID, identityID uuid.UUID,
	email string,
	seeds []demoAccount,
) (int, error) {
	existing, err := accounts.List(ctx, userID, accountDomain.ListAccountsFilter{IdentityID: &identityID, Limit: 100})
	if err != nil {
		return 0, fmt.Errorf("failed to list demo accounts: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, account := range existing {
		present[account.WebsiteName] = true
	}

	created := 0
	for _, seed := range seeds {
		if present[seed.name] {
			continue
		}

		account, err := accounts.Create(ctx, userID, &accountDomain.CreateAccountInput{
			IdentityID:   identityID,
			WebsiteName:  seed.name,
			WebsiteURL:   seed.url,
			AccountType:  seed.accountType,
			SignupMethod: accountDomain.SignupMethodAutomated,
			IsVerified:   seed.signupCompleted,
			Credentials: accountDomain.Credentials{
				Username: ptr(seed.username),
				Email:    ptr(email),
				Password: ptr(seed.password),
				Notes:    ptr(seed.notes),
			},
		})
		if err != nil {
			return created, fmt.Errorf("failed to create account %q: %w", seed.name, err)
		}
		created++

		if seed.signupCompleted {
			completed := true
			if _, err := accounts.Update(ctx, userID, account.ID, &accountDomain.UpdateAccountInput{
				SignupCompleted: &completed,
			}); err != nil {
				return created, fmt.Errorf("failed to mark signup of %q completed: %w", seed.name, err)
			}
		}
	}
	return created, nil
}
