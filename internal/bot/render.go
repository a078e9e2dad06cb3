package bot

import (
	"fmt"
	"strings"

	"github.com/amora-app/amora-bot/internal/chat"
	"github.com/amora-app/amora-bot/internal/models"
	"github.com/amora-app/amora-bot/internal/store"
)

// Action tokens carried in inline buttons.
const (
	actionSearch            = "search"
	actionMyProfile         = "my_profile"
	actionReferral          = "referral"
	actionStore             = "store"
	actionAdminMenu         = "admin_menu"
	actionAdminListUsers    = "admin_list_users"
	actionAdminGrantCoins   = "admin_grant_coins"
	actionAdminGrantPremium = "admin_grant_premium"
	actionAdminBanUser      = "admin_ban_user"
	actionAdminUnbanUser    = "admin_unban_user"
	actionMainMenuBack      = "main_menu_back"
	actionNextProfile       = "next_profile"
	actionLikePrefix        = "like_"
)

// Reply texts.
const (
	msgWelcomeBack     = "Welcome back! You can access the menu with /menu."
	msgAskGender       = "Hi! Welcome to Amora. Let's create your profile. First, what is your gender?"
	msgGenderReprompt  = "Please choose Male, Female or Other."
	msgAskAge          = "Great! Now, how old are you?"
	msgAgeReprompt     = "Please enter a valid age (between 18 and 99)."
	msgAskBio          = "Got it. Now, write a short bio about yourself."
	msgAskPhoto        = "Nice bio! Now, please send a photo of yourself."
	msgPhotoReprompt   = "Please send a photo."
	msgAskLocation     = "Looking good! Finally, what's your location (e.g., city, country)?"
	msgProfileComplete = "Your profile is complete! You can now use the bot's features. Use /menu to see what you can do."
	msgCancelled       = "Operation cancelled."
	msgMainMenu        = "Main Menu:"
	msgIdleHint        = "Use /menu to see what you can do."
	msgProfileNotFound = "Profile not found."
	msgStoreComingSoon = "Store coming soon!"

	msgAskSearchGender = "Who are you interested in?"
	msgAskSearchMinAge = "What's the minimum age you're looking for?"
	msgAskSearchMaxAge = "And the maximum age?"
	msgMaxAgeReprompt  = "Please enter a valid age greater than or equal to the minimum age."
	msgNoCandidates    = "No users found matching your criteria."
	msgNoMoreProfiles  = "No more profiles to show."
	msgYouLiked        = "You liked this profile!"
	msgLikedNotice     = "Someone liked your profile! You can view their profile by searching for them."

	msgNotAuthorized   = "You are not authorized to use this command."
	msgAdminMenu       = "Admin Menu:"
	msgNoUsers         = "No users found."
	msgAskCoinGrant    = "Enter the User ID and amount of coins to grant (e.g., 12345678 100)."
	msgAskPremiumGrant = "Enter the User ID to grant premium status to."
	msgAskBan          = "Enter the User ID to ban."
	msgAskUnban        = "Enter the User ID to unban."
	msgBackToMainMenu  = "Returning to main menu... Use /menu to bring it up again."
	msgUserNotFound    = "User not found."
	msgCoinGrantFormat = "Invalid format. Please use: UserID Amount"
	msgInvalidUserID   = "Invalid User ID."

	msgCoinsGranted         = "Successfully granted %d coins to user %d."
	msgCoinsGrantedNotice   = "An admin has granted you %d coins!"
	msgPremiumGranted       = "Successfully granted premium status to user %d."
	msgPremiumGrantedNotice = "An admin has granted you premium status!"
	msgUserBanned           = "Successfully banned user %d."
	msgBannedNotice         = "An admin has banned you."
	msgUserUnbanned         = "Successfully unbanned user %d."
	msgUnbannedNotice       = "An admin has unbanned you."
)

func genderButtons() [][]chat.Button {
	return [][]chat.Button{{
		{Label: models.GenderMale, Action: models.GenderMale},
		{Label: models.GenderFemale, Action: models.GenderFemale},
		{Label: models.GenderOther, Action: models.GenderOther},
	}}
}

func mainMenuButtons(isAdmin bool) [][]chat.Button {
	buttons := [][]chat.Button{
		{{Label: "Search for others", Action: actionSearch}},
		{{Label: "View my profile", Action: actionMyProfile}},
		{{Label: "Referral System", Action: actionReferral}},
		{{Label: "Store", Action: actionStore}},
	}
	if isAdmin {
		buttons = append(buttons, []chat.Button{{Label: "Admin Menu", Action: actionAdminMenu}})
	}
	return buttons
}

func adminMenuButtons() [][]chat.Button {
	return [][]chat.Button{
		{{Label: "List Users", Action: actionAdminListUsers}},
		{{Label: "Grant Coins", Action: actionAdminGrantCoins}},
		{{Label: "Grant Premium", Action: actionAdminGrantPremium}},
		{{Label: "Ban User", Action: actionAdminBanUser}},
		{{Label: "Unban User", Action: actionAdminUnbanUser}},
		{{Label: "Back to Main Menu", Action: actionMainMenuBack}},
	}
}

func browseButtons(targetID int64) [][]chat.Button {
	return [][]chat.Button{{
		{Label: "Like ❤️", Action: fmt.Sprintf("%s%d", actionLikePrefix, targetID)},
		{Label: "Next ➡️", Action: actionNextProfile},
	}}
}

// profileText renders the joined profile view as HTML. Unset fields show a
// dash rather than hiding the line.
func profileText(fp *store.FullProfile) string {
	premium := "No"
	if fp.IsPremium {
		premium = "Yes"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Name:</b> %s\n", fp.Name)
	fmt.Fprintf(&b, "<b>Gender:</b> %s\n", strOrDash(fp.Gender))
	fmt.Fprintf(&b, "<b>Age:</b> %s\n", intOrDash(fp.Age))
	fmt.Fprintf(&b, "<b>Bio:</b> %s\n", strOrDash(fp.Bio))
	fmt.Fprintf(&b, "<b>Location:</b> %s\n", strOrDash(fp.Location))
	fmt.Fprintf(&b, "<b>Coins:</b> %d\n", fp.Coins)
	fmt.Fprintf(&b, "<b>Premium:</b> %s", premium)
	return b.String()
}

func referralText(code string, count int64) string {
	return fmt.Sprintf(
		"Your referral code is: `%s`\n"+
			"Share this code with your friends. You'll get 50 coins for each friend who joins!\n"+
			"You have successfully referred %d users.",
		code, count,
	)
}

func strOrDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func intOrDash(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *n)
}
