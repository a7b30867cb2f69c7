package user

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/darasa/core"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "invalid roles"

	usernameOrEmailTag  = "username_or_email"
	usernameOrEmailText = "one of username or email is required"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = "password is too common"
	commonPasswords = make([]string, 0, 19727) // total pwds in assets/common-passwords.txt.gz

	spaceRegex = regexp.MustCompile(`\s`)
)

// InitValidators registers the user domain's custom validators on the global validator.
func InitValidators() {
	_ = core.Validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(allRolesTag, allRolesText)

	core.Validate.RegisterStructValidation(newUserStructValidation, NewUser{})
	core.Validate.RegisterStructValidation(updateUserStructValidation, UpdateUser{})
	core.RegisterCustomTranslation(usernameOrEmailTag, usernameOrEmailText)
	core.RegisterCustomTranslation(pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(pwdNoCommonTag, pwdNoCommonText)
}

// LoadCommonPasswords loads the common-passwords asset; password validation
// degrades gracefully when the asset is absent.
func LoadCommonPasswords(logger core.Logger) {
	path := filepath.Join(core.Conf.WorkDir, "assets", "common-passwords.txt.gz")
	file, err := os.Open(path)
	if err != nil {
		logger.Warn(fmt.Sprintf("common passwords asset not loaded: %v", err))
		return
	}
	defer file.Close()

	gzRdr, err := gzip.NewReader(file)
	if err != nil {
		logger.Warn(fmt.Sprintf("common passwords asset not loaded: %v", err))
		return
	}
	scanner := bufio.NewScanner(gzRdr)
	for scanner.Scan() {
		commonPasswords = append(commonPasswords, strings.TrimSpace(scanner.Text()))
	}
	sort.Strings(commonPasswords)
}

// Custom Validators

// allRolesValidation checks that provided user roles are all in AllRoles
func allRolesValidation(fl validator.FieldLevel) bool {
	roles, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	all := append([]string(nil), AllRoles...)
	sort.Strings(all)
	for _, role := range roles {
		i := sort.SearchStrings(all, role)
		if i >= len(all) || all[i] != role {
			return false
		}
	}
	return true
}

func newUserStructValidation(sl validator.StructLevel) {
	nu := sl.Current().Interface().(NewUser)
	validateUsernameOrEmail(sl, nu.Username, nu.Email)
	validatePassword(sl, nu.Password, nu.Name, nu.Username, nu.Email)
}

func updateUserStructValidation(sl validator.StructLevel) {
	uu := sl.Current().Interface().(UpdateUser)
	validateUsernameOrEmail(sl, uu.Username, uu.Email)
	if uu.Password != "" {
		validatePassword(sl, uu.Password, uu.Name, uu.Username, uu.Email)
	}
}

func validateUsernameOrEmail(sl validator.StructLevel, uname, email string) {
	if uname == "" && email == "" {
		sl.ReportError(uname, "username", "Username", usernameOrEmailTag, "")
		sl.ReportError(email, "email", "Email", usernameOrEmailTag, "")
	}
}

func validatePassword(sl validator.StructLevel, pwd string, attrs ...string) {
	report := func(tag string) { sl.ReportError(pwd, "password", "Password", tag, "") }

	if len(pwd) < pwdMinLen {
		report(pwdMinLenTag)
	}
	if spaceRegex.MatchString(pwd) {
		report(pwdNoSpaceTag)
	}
	if isAllNumeric(pwd) {
		report(pwdNotAllNumTag)
	}
	if isTooSimilar(pwd, attrs) {
		report(pwdAttrSimTag)
	}
	if isCommonPassword(pwd) {
		report(pwdNoCommonTag)
	}
}

func isAllNumeric(pwd string) bool {
	for _, r := range pwd {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(pwd) > 0
}

// isTooSimilar checks the password against each user attribute using
// difflib's SequenceMatcher ratio.
func isTooSimilar(pwd string, attrs []string) bool {
	lowPwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		sm := difflib.NewMatcher(
			difflib.SplitLines(strings.ToLower(attr)),
			difflib.SplitLines(lowPwd),
		)
		if sm.Ratio() >= pwdMaxSim {
			return true
		}
	}
	return false
}

func isCommonPassword(pwd string) bool {
	if len(commonPasswords) == 0 {
		return false
	}
	lowPwd := strings.ToLower(pwd)
	i := sort.SearchStrings(commonPasswords, lowPwd)
	return i < len(commonPasswords) && commonPasswords[i] == lowPwd
}
