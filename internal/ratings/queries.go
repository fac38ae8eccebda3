package ratings

// GraphQL documents for the professor-rating service. Field selections match
// the public web client's operations; the service rejects unknown operation
// names but tolerates reduced field sets.

const schoolSearchQuery = `query NewSearchSchoolsQuery($query: SchoolSearchQuery!) {
  newSearch {
    schools(query: $query) {
      edges {
        node {
          id
          legacyId
          name
          city
          state
          numRatings
          avgRatingRounded
        }
      }
    }
  }
}`

const teacherSearchQuery = `query TeacherSearchResultsPageQuery(
  $query: TeacherSearchQuery!
  $schoolID: ID
  $includeSchoolFilter: Boolean!
) {
  search: newSearch {
    teachers(query: $query, first: 8, after: "") {
      edges {
        node {
          id
          legacyId
          avgRating
          numRatings
          wouldTakeAgainPercent
          avgDifficulty
          department
          firstName
          lastName
        }
      }
    }
  }
  school: node(id: $schoolID) @include(if: $includeSchoolFilter) {
    __typename
    ... on School {
      name
    }
    id
  }
}`

const teacherReviewsQuery = `query TeacherRatingsPageQuery($id: ID!) {
  node(id: $id) {
    __typename
    ... on Teacher {
      firstName
      lastName
      department
      ratings(first: 1000) {
        edges {
          node {
            comment
            class
            date
            difficultyRating
            grade
            wouldTakeAgain
            ratingTags
            clarityRating
          }
        }
      }
    }
  }
}`

const teacherCoursesQuery = `query TeacherRatingsPageQuery($id: ID!) {
  node(id: $id) {
    __typename
    ... on Teacher {
      ratings(first: 1000) {
        edges {
          node {
            class
          }
        }
      }
    }
  }
}`
