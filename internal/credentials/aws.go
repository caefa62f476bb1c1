package credentials

import (
	"errors"
	"regexp"
)

// AWS credential shape.
const (
	awsAccessKeyMinLength = 16
	awsAccessKeyMaxLength = 128
	awsSecretMinLength    = 20
	awsSecretMaxLength    = 128
)

// Static errors.
var (
	ErrMalformedAccessKey = errors.New("AWS access key ID must be 16-128 upper case letters and digits")
	ErrMalformedSecretKey = errors.New("AWS secret access key must be 20-128 characters")
	ErrMalformedRegion    = errors.New("invalid AWS region format (expected: us-east-1, eu-west-1, etc.)")
)

var (
	accessKeyPattern = regexp.MustCompile(`^[A-Z0-9]+$`)
	regionPattern    = regexp.MustCompile(`^[a-z]{2}-[a-z]+-\d+$`)
)

// CheckAWSFormat verifies the structural shape of an AWS key pair.
func CheckAWSFormat(accessKeyID, secretAccessKey string) error {
	if len(accessKeyID) < awsAccessKeyMinLength || len(accessKeyID) > awsAccessKeyMaxLength ||
		!accessKeyPattern.MatchString(accessKeyID) {
		return ErrMalformedAccessKey
	}

	if len(secretAccessKey) < awsSecretMinLength || len(secretAccessKey) > awsSecretMaxLength {
		return ErrMalformedSecretKey
	}

	return nil
}

// CheckRegion verifies the structural shape of an AWS region name.
func CheckRegion(region string) error {
	if !regionPattern.MatchString(region) {
		return ErrMalformedRegion
	}

	return nil
}
