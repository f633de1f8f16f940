package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteRegistrationGuide explains how to obtain the identifier for service.
func WriteRegistrationGuide(w io.Writer, service string) {
	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)

	switch service {
	case ServiceImgur:
		fmt.Fprintln(w, "IMGUR CLIENT ID")
		fmt.Fprintln(w, rule)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "1. Sign in at https://imgur.com and open https://api.imgur.com/oauth2/addclient")
		fmt.Fprintln(w, "2. Choose \"OAuth 2 authorization without a callback URL\"")
		fmt.Fprintln(w, "3. Submit the form and copy the Client ID shown afterwards")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Store it with:  imagegrab auth set imgur")
		fmt.Fprintln(w, "Or export:      IMAGEGRAB_IMGUR_CLIENT_ID=<client id>")
	case ServiceReddit:
		fmt.Fprintln(w, "REDDIT APP ID")
		fmt.Fprintln(w, rule)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "1. Sign in at https://www.reddit.com and open https://www.reddit.com/prefs/apps")
		fmt.Fprintln(w, "2. Create an app of type \"installed app\"")
		fmt.Fprintln(w, "3. Copy the id printed under the app name")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Store it with:  imagegrab auth set reddit")
		fmt.Fprintln(w, "Or export:      IMAGEGRAB_REDDIT_APP_ID=<app id>")
	default:
		fmt.Fprintf(w, "Unknown service %q. Known services: %s, %s\n", service, ServiceImgur, ServiceReddit)
	}

	fmt.Fprintln(w, rule)
}
